package embed

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/shared/id"
)

// Config holds the coordinator's timing and discovery budgets.
type Config struct {
	PrimaryAttempts  int
	PrimaryDelay     time.Duration
	FallbackFragment string
	FallbackAttempts int
	FallbackDelay    time.Duration

	// SettleDelay is waited after a fresh launch before discovery starts.
	SettleDelay time.Duration
	// EnforcePeriod is the style enforcement tick.
	EnforcePeriod time.Duration
	// WaitPollInterval and WaitTimeout bound how long a concurrent Embed
	// waits for the in-flight one.
	WaitPollInterval time.Duration
	WaitTimeout      time.Duration
}

// DefaultConfig returns the budgets used for the bundled code editor.
func DefaultConfig() Config {
	return Config{
		PrimaryAttempts:  10,
		PrimaryDelay:     500 * time.Millisecond,
		FallbackFragment: "Visual Studio Code",
		FallbackAttempts: 5,
		FallbackDelay:    500 * time.Millisecond,
		SettleDelay:      1500 * time.Millisecond,
		EnforcePeriod:    time.Second,
		WaitPollInterval: 100 * time.Millisecond,
		WaitTimeout:      15 * time.Second,
	}
}

// Coordinator drives one embedding session. It is the only writer of the
// session; the bridge and enforcer only ever see the handle they are given.
type Coordinator struct {
	cfg       Config
	bridge    Bridge
	launcher  Launcher
	discovery *Discovery
	enforcer  *Enforcer
	bus       *Bus
	guard     *resilience.Breaker
	observer  Observer
	logger    *zap.Logger

	mu      sync.Mutex
	session Session
	// inflight is the lock over Launching..Reparenting, held by one Launch
	// or Embed at a time.
	inflight    *flight
	embedCancel context.CancelFunc
	// gen increments on every Detach so a stale embed cannot commit.
	gen uint64

	sleep     func(ctx context.Context, d time.Duration) error
	closeOnce sync.Once
	done      chan struct{}
}

// flight records one Launch or Embed that holds the session lock. Its
// outcome is read by Embed callers that waited on it.
type flight struct {
	embed  bool
	done   bool
	handle native.Handle
	err    error
}

// NewCoordinator creates an idle coordinator and starts watching for
// foreign process exits.
func NewCoordinator(bridge Bridge, launcher Launcher, cfg Config) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		bridge:   bridge,
		launcher: launcher,
		bus:      NewBus(),
		observer: nopObserver{},
		logger:   zap.NewNop(),
		sleep:    sleepCtx,
		done:     make(chan struct{}),
	}
	c.discovery = NewDiscovery(bridge, c.logger)
	c.enforcer = NewEnforcer(bridge, c.logger, c.styleCorrected)

	go c.watchExits()
	return c
}

// WithLogger sets the logger used by the coordinator and its components.
func (c *Coordinator) WithLogger(logger *zap.Logger) *Coordinator {
	if logger == nil {
		return c
	}
	c.logger = logger.Named("embed")
	c.discovery.logger = c.logger.Named("discovery")
	c.enforcer.logger = c.logger.Named("enforcer")
	return c
}

// WithObserver attaches telemetry.
func (c *Coordinator) WithObserver(o Observer) *Coordinator {
	if o == nil {
		return c
	}
	c.observer = o
	c.discovery.observer = o
	return c
}

// WithGuard routes launches through a circuit breaker.
func (c *Coordinator) WithGuard(b *resilience.Breaker) *Coordinator {
	c.guard = b
	return c
}

// Events returns the bus state changes are published on.
func (c *Coordinator) Events() *Bus {
	return c.bus
}

// SetHost records the host window every embed reparents into.
func (c *Coordinator) SetHost(h native.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.HostHandle = h
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.State
}

// Info returns a snapshot for the host UI.
func (c *Coordinator) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	guard := ""
	if c.guard != nil {
		guard = c.guard.State().String()
	}
	running := s.ProcessID != 0 && c.launcher.Running(s.ProcessID)
	if s.State == StateEmbedded && c.bridge.IsWindow(s.NativeHandle) {
		running = true
	}
	return Info{
		ProcessID:     s.ProcessID,
		Handle:        s.NativeHandle,
		HostHandle:    s.HostHandle,
		WorkspacePath: s.WorkspacePath,
		IsRunning:     running,
		State:         s.State.String(),
		Visible:       s.Visible,
		Bounds:        s.Bounds,
		LaunchGuard:   guard,
	}
}

// Launch starts the foreign process without embedding it. It is a no-op when
// the process is already running or a window is embedded.
func (c *Coordinator) Launch(ctx context.Context) error {
	start := time.Now()

	c.mu.Lock()
	if c.inflight != nil {
		c.mu.Unlock()
		return newError(KindAlreadyEmbedding, "launch", nil)
	}
	if c.session.State == StateEmbedded {
		c.mu.Unlock()
		return nil
	}
	f := &flight{}
	c.inflight = f
	gen := c.gen
	c.mu.Unlock()

	_, _, err := c.ensureProcess(ctx, gen)

	c.mu.Lock()
	f.done, f.err = true, err
	if c.gen == gen {
		c.inflight = nil
		if c.session.State == StateLaunching {
			c.setStateLocked(StateIdle)
		}
	}
	c.mu.Unlock()

	c.observer.Operation("launch", err, time.Since(start))
	if err != nil {
		c.publishError("launch", err)
	}
	return err
}

// Embed hosts the foreign window at rect and returns its handle.
//
// When the session is already Embedded only the rect is re-applied. When
// another Embed is in flight the call waits for its outcome instead of
// starting a second embedding; when a plain Launch is in flight it waits for
// the process and then embeds it.
func (c *Coordinator) Embed(ctx context.Context, rect native.Rect) (native.Handle, error) {
	if err := rect.Validate(); err != nil {
		return 0, newError(KindInvalidRequest, "embed", err)
	}
	start := time.Now()
	h, err := c.embed(ctx, rect)
	c.observer.Operation("embed", err, time.Since(start))
	return h, err
}

func (c *Coordinator) embed(ctx context.Context, rect native.Rect) (native.Handle, error) {
	c.mu.Lock()
	if c.session.State == StateEmbedded {
		h := c.session.NativeHandle
		c.mu.Unlock()
		return h, c.Resize(ctx, rect)
	}
	if f := c.inflight; f != nil {
		gen := c.gen
		c.mu.Unlock()
		return c.waitForEmbed(ctx, gen, f, rect)
	}

	f := &flight{embed: true}
	c.inflight = f
	gen := c.gen
	embedCtx, cancel := context.WithCancel(ctx)
	c.embedCancel = cancel
	c.mu.Unlock()
	defer cancel()

	h, err := c.runEmbed(embedCtx, gen, rect)

	c.mu.Lock()
	f.done, f.handle, f.err = true, h, err
	if c.gen == gen {
		c.inflight = nil
		c.embedCancel = nil
		if err != nil && c.session.State != StateIdle {
			c.setStateLocked(StateIdle)
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.publishError("embed", err)
	}
	return h, err
}

func (c *Coordinator) runEmbed(ctx context.Context, gen uint64, rect native.Rect) (native.Handle, error) {
	embedID := id.NewEmbedID()
	log := c.logger.With(zap.Stringer("embed_id", embedID))

	c.mu.Lock()
	host := c.session.HostHandle
	c.mu.Unlock()
	if host == 0 {
		return 0, newError(KindReparentFailed, "embed", errNoHost)
	}

	pid, workspace, err := c.ensureProcess(ctx, gen)
	if err != nil {
		return 0, err
	}
	log.Info("embedding foreign window",
		zap.Int("pid", pid),
		zap.String("workspace", workspace),
		zap.Any("rect", rect),
	)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return 0, newError(KindReparentFailed, "embed", errDetached)
	}
	c.setStateLocked(StateDiscovering)
	c.mu.Unlock()

	win, err := c.discovery.FindTwoPhase(ctx,
		Phase{Fragment: filepath.Base(workspace), Attempts: c.cfg.PrimaryAttempts, Delay: c.cfg.PrimaryDelay},
		Phase{Fragment: c.cfg.FallbackFragment, Attempts: c.cfg.FallbackAttempts, Delay: c.cfg.FallbackDelay},
	)
	if err != nil {
		log.Warn("foreign window not found", zap.String("workspace", workspace), zap.Error(err))
		return 0, newError(KindWindowNotFound, "embed", err)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return 0, newError(KindReparentFailed, "embed", errDetached)
	}
	host = c.session.HostHandle
	c.setStateLocked(StateReparenting)
	c.mu.Unlock()

	if err := c.reparent(win.Handle, host, rect); err != nil {
		log.Error("reparent failed", zap.Stringer("handle", win.Handle), zap.Error(err))
		return 0, newError(KindReparentFailed, "embed", err)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return 0, newError(KindReparentFailed, "embed", errDetached)
	}
	c.session.NativeHandle = win.Handle
	if win.PID != 0 && win.PID != c.session.ProcessID {
		// The launched process handed off to another instance; that one
		// owns the window and is what Detach has to kill.
		log.Info("window owned by a different process",
			zap.Int("launched_pid", c.session.ProcessID),
			zap.Int("owner_pid", win.PID),
		)
		c.session.ProcessID = win.PID
	}
	c.applyBoundsLocked(rect)
	c.setStateLocked(StateEmbedded)
	c.enforcer.Start(win.Handle, c.cfg.EnforcePeriod)
	if !rect.IsZero() {
		c.focusLocked(win.Handle)
	}
	pid = c.session.ProcessID
	c.mu.Unlock()

	log.Info("foreign window embedded", zap.Stringer("handle", win.Handle))
	c.bus.Publish(Event{
		Type:      EventEmbedded,
		State:     StateEmbedded.String(),
		Handle:    win.Handle,
		ProcessID: pid,
		Bounds:    &rect,
	})
	return win.Handle, nil
}

// ensureProcess launches the foreign process unless the session already has
// a live one, then waits the settle delay after a fresh launch.
func (c *Coordinator) ensureProcess(ctx context.Context, gen uint64) (int, string, error) {
	c.mu.Lock()
	if pid := c.session.ProcessID; pid != 0 && c.launcher.Running(pid) {
		ws := c.session.WorkspacePath
		c.mu.Unlock()
		return pid, ws, nil
	}
	workspace := c.session.WorkspacePath
	if workspace == "" {
		workspace = c.launcher.NewWorkspace()
	}
	c.setStateLocked(StateLaunching)
	c.mu.Unlock()

	pid, err := c.launch(ctx, workspace)
	if err != nil {
		return 0, "", err
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		if terr := c.launcher.Terminate(pid); terr != nil {
			c.logger.Warn("failed to terminate process launched during detach", zap.Int("pid", pid), zap.Error(terr))
		}
		return 0, "", newError(KindLaunchFailed, "launch", errDetached)
	}
	c.session.ProcessID = pid
	c.session.WorkspacePath = workspace
	c.mu.Unlock()

	if err := c.sleep(ctx, c.cfg.SettleDelay); err != nil {
		return 0, "", newError(KindLaunchFailed, "launch", err)
	}
	return pid, workspace, nil
}

func (c *Coordinator) launch(ctx context.Context, workspace string) (int, error) {
	var pid int
	run := func() error {
		var err error
		pid, err = c.launcher.Launch(ctx, workspace)
		return err
	}

	var err error
	if c.guard != nil {
		err = c.guard.Do(run)
	} else {
		err = run()
	}

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		c.logger.Warn("launch refused by guard",
			zap.String("guard", c.guard.Name()),
			zap.Uint32("consecutive_failures", c.guard.Counts().ConsecutiveFailures),
		)
		return 0, newError(KindUnavailable, "launch", err)
	case err != nil:
		c.logger.Error("foreign process launch failed", zap.String("workspace", workspace), zap.Error(err))
		return 0, newError(KindLaunchFailed, "launch", err)
	}
	return pid, nil
}

// reparent makes h a borderless child of host at rect.
func (c *Coordinator) reparent(h, host native.Handle, rect native.Rect) error {
	if host == 0 {
		return errNoHost
	}
	if err := c.bridge.SetParent(h, host); err != nil {
		return fmt.Errorf("set parent: %w", err)
	}

	style, err := c.bridge.GetStyle(h)
	if err != nil {
		return fmt.Errorf("read style: %w", err)
	}
	if err := c.bridge.SetStyle(h, ComputeEmbeddedStyle(style)); err != nil {
		return fmt.Errorf("write style: %w", err)
	}
	if err := c.bridge.ApplyFrameChange(h); err != nil {
		return fmt.Errorf("apply frame change: %w", err)
	}
	if err := c.bridge.MoveResize(h, rect); err != nil {
		return fmt.Errorf("move window: %w", err)
	}
	return nil
}

// waitForEmbed polls until the in-flight flight f finishes or WaitTimeout
// elapses. An embed's outcome is shared as is; after a plain launch the
// caller embeds into the launched process itself. It never launches
// anything while f is running.
func (c *Coordinator) waitForEmbed(ctx context.Context, gen uint64, f *flight, rect native.Rect) (native.Handle, error) {
	poll := c.cfg.WaitPollInterval
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	deadline := time.Now().Add(c.cfg.WaitTimeout)

	for {
		c.mu.Lock()
		switch {
		case c.gen != gen:
			c.mu.Unlock()
			return 0, newError(KindAlreadyEmbedding, "embed", errDetached)
		case f.done && f.embed:
			h, err := f.handle, f.err
			c.mu.Unlock()
			return h, err
		case f.done:
			c.mu.Unlock()
			return c.embed(ctx, rect)
		}
		c.mu.Unlock()

		if !time.Now().Before(deadline) {
			return 0, newError(KindAlreadyEmbedding, "embed", fmt.Errorf("in-flight embed did not finish within %s", c.cfg.WaitTimeout))
		}
		if err := c.sleep(ctx, poll); err != nil {
			return 0, newError(KindAlreadyEmbedding, "embed", err)
		}
	}
}

// Resize moves the embedded window to rect. A zero-size rect hides it.
//
// The order is fixed: move, re-apply style (moving perturbs style bits on
// some systems), redraw, then focus.
func (c *Coordinator) Resize(ctx context.Context, rect native.Rect) error {
	if err := rect.Validate(); err != nil {
		return newError(KindInvalidRequest, "resize", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.session.State != StateEmbedded {
		c.mu.Unlock()
		return newError(KindNotEmbedded, "resize", nil)
	}
	h := c.session.NativeHandle

	if err := c.bridge.MoveResize(h, rect); err != nil {
		c.mu.Unlock()
		return newError(KindNativeCall, "resize", err)
	}
	if _, err := c.enforcer.Enforce(h); err != nil {
		c.logger.Warn("style re-apply after resize failed", zap.Stringer("handle", h), zap.Error(err))
	}
	if err := c.bridge.Redraw(h); err != nil {
		c.logger.Debug("redraw failed", zap.Stringer("handle", h), zap.Error(err))
	}
	if !rect.IsZero() {
		c.focusLocked(h)
	}

	wasVisible := c.session.Visible
	c.applyBoundsLocked(rect)
	visible := c.session.Visible
	c.mu.Unlock()

	c.bus.Publish(Event{Type: EventResized, Handle: h, Bounds: &rect})
	if wasVisible != visible {
		c.bus.Publish(Event{Type: EventVisibilityChanged, Handle: h, Visible: &visible})
	}
	return nil
}

// SetVisible hides the window by collapsing it to a zero rect, and shows it
// by replaying the last non-zero bounds.
func (c *Coordinator) SetVisible(ctx context.Context, visible bool) error {
	c.mu.Lock()
	if c.session.State != StateEmbedded {
		c.mu.Unlock()
		return newError(KindNotEmbedded, "set_visible", nil)
	}
	target := native.Rect{}
	if visible {
		target = c.session.lastShown
	}
	c.mu.Unlock()

	return c.Resize(ctx, target)
}

// Detach stops enforcement, kills the foreign process and clears the
// session. The session is cleared even when the kill fails; that case is
// reported as DetachPartial.
func (c *Coordinator) Detach(ctx context.Context) error {
	start := time.Now()

	c.mu.Lock()
	if c.embedCancel != nil {
		c.embedCancel()
		c.embedCancel = nil
	}
	c.gen++
	c.inflight = nil

	s := c.session
	c.setStateLocked(StateDetaching)
	// Stop waits for an in-flight tick, so nothing writes to the handle
	// once it is cleared below.
	c.enforcer.Stop()

	var err error
	if s.ProcessID != 0 {
		if kerr := c.launcher.Terminate(s.ProcessID); kerr != nil {
			c.logger.Warn("failed to terminate foreign process", zap.Int("pid", s.ProcessID), zap.Error(kerr))
			err = newError(KindDetachPartial, "detach", kerr)
		}
	}

	c.session = Session{HostHandle: s.HostHandle}
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	c.logger.Info("foreign window detached",
		zap.Stringer("handle", s.NativeHandle),
		zap.Int("pid", s.ProcessID),
	)
	c.observer.Operation("detach", err, time.Since(start))

	ev := Event{Type: EventDetached, Handle: s.NativeHandle, ProcessID: s.ProcessID, Reason: "requested"}
	if err != nil {
		ev.Kind = KindDetachPartial
		ev.Error = err.Error()
	}
	c.bus.Publish(ev)
	return err
}

// CloseWindow posts a close request to a window other than the embedded
// one, e.g. a stray dialog the foreign process opened.
func (c *Coordinator) CloseWindow(h native.Handle) error {
	c.mu.Lock()
	embedded := c.session.NativeHandle
	c.mu.Unlock()

	if h == 0 {
		return ErrNoWindow
	}
	if h == embedded {
		return fmt.Errorf("close %s: %w", h, ErrEmbeddedWindow)
	}
	if err := c.bridge.PostClose(h); err != nil {
		return newError(KindNativeCall, "close_window", err)
	}
	return nil
}

// Windows lists visible top-level windows whose title contains substring.
func (c *Coordinator) Windows(substring string) ([]native.WindowInfo, error) {
	return c.discovery.List(substring)
}

// Close detaches and stops the exit watcher. Used on host shutdown.
func (c *Coordinator) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		active := c.session.State != StateIdle || c.session.ProcessID != 0
		c.mu.Unlock()
		if active {
			err = c.Detach(context.Background())
		}
		c.bus.Close()
	})
	return err
}

func (c *Coordinator) watchExits() {
	exited := c.launcher.Exited()
	for {
		select {
		case <-c.done:
			return
		case pid, ok := <-exited:
			if !ok {
				return
			}
			c.handleExit(pid)
		}
	}
}

// handleExit clears the session when the embedded window's process dies on
// its own. Exits of processes that handed off their window are ignored.
func (c *Coordinator) handleExit(pid int) {
	c.mu.Lock()
	if c.session.ProcessID != pid {
		c.mu.Unlock()
		return
	}

	switch c.session.State {
	case StateEmbedded:
		h := c.session.NativeHandle
		if c.bridge.IsWindow(h) {
			c.mu.Unlock()
			return
		}
		c.enforcer.Stop()
		c.gen++
		c.session = Session{HostHandle: c.session.HostHandle}
		c.setStateLocked(StateIdle)
		c.mu.Unlock()

		c.logger.Warn("foreign process exited while embedded", zap.Int("pid", pid))
		c.bus.Publish(Event{Type: EventDetached, Handle: h, ProcessID: pid, Reason: "process_exited"})
	case StateIdle:
		c.session.ProcessID = 0
		c.mu.Unlock()
	default:
		// An in-flight embed notices through discovery or relaunches.
		c.mu.Unlock()
	}
}

// applyBoundsLocked records rect and derives visibility from it.
func (c *Coordinator) applyBoundsLocked(rect native.Rect) {
	c.session.Bounds = rect
	if rect.IsZero() {
		c.session.Visible = false
		return
	}
	c.session.Visible = true
	c.session.lastShown = rect
}

// focusLocked uses child focus for a parented window and foreground
// activation otherwise. Focus failures are not fatal.
func (c *Coordinator) focusLocked(h native.Handle) {
	parent, err := c.bridge.Parent(h)
	if err != nil {
		c.logger.Debug("parent lookup failed", zap.Stringer("handle", h), zap.Error(err))
	}
	if parent != 0 {
		err = c.bridge.Focus(h)
	} else {
		err = c.bridge.Activate(h)
	}
	if err != nil {
		c.logger.Debug("focus failed", zap.Stringer("handle", h), zap.Error(err))
	}
}

func (c *Coordinator) setStateLocked(to State) {
	from := c.session.State
	if from == to {
		return
	}
	c.session.State = to
	c.observer.StateChanged(from, to)
	c.bus.Publish(Event{Type: EventStateChanged, From: from.String(), State: to.String()})
}

func (c *Coordinator) styleCorrected(h native.Handle, from, to native.Style) {
	c.observer.StyleCorrected()
	c.logger.Debug("style corrected",
		zap.Stringer("handle", h),
		zap.Uint32("from", uint32(from)),
		zap.Uint32("to", uint32(to)),
	)
	c.bus.Publish(Event{Type: EventStyleCorrected, Handle: h})
}

func (c *Coordinator) publishError(op string, err error) {
	c.bus.Publish(Event{Type: EventError, Reason: op, Kind: KindOf(err), Error: err.Error()})
}
