package embed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

// Enforcer periodically re-applies the embedded style mask to a window. The
// foreign process and the OS both restore decoration bits over time.
//
// A tick writes only when the live style differs from the target, so an
// untouched window costs one style read per period and never flickers.
type Enforcer struct {
	bridge       Bridge
	logger       *zap.Logger
	onCorrection func(h native.Handle, from, to native.Style)

	// passMu serializes ticks with synchronous Enforce calls from resize.
	passMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	handle native.Handle
}

// NewEnforcer creates a stopped enforcer. onCorrection may be nil.
func NewEnforcer(bridge Bridge, logger *zap.Logger, onCorrection func(h native.Handle, from, to native.Style)) *Enforcer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enforcer{
		bridge:       bridge,
		logger:       logger,
		onCorrection: onCorrection,
	}
}

// Enforce runs one read-compare-write pass on h and reports whether the
// style had to be rewritten.
func (e *Enforcer) Enforce(h native.Handle) (bool, error) {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	current, err := e.bridge.GetStyle(h)
	if err != nil {
		return false, fmt.Errorf("read style: %w", err)
	}

	target := ComputeEmbeddedStyle(current)
	if target == current {
		return false, nil
	}

	if err := e.bridge.SetStyle(h, target); err != nil {
		return false, fmt.Errorf("write style: %w", err)
	}
	if err := e.bridge.ApplyFrameChange(h); err != nil {
		return true, fmt.Errorf("apply frame change: %w", err)
	}

	if e.onCorrection != nil {
		e.onCorrection(h, current, target)
	}
	return true, nil
}

// Start begins enforcing on h every period, replacing any previous target.
func (e *Enforcer) Start(h native.Handle, period time.Duration) {
	e.Stop()

	if period <= 0 {
		period = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	e.mu.Lock()
	e.cancel = cancel
	e.done = done
	e.handle = h
	e.mu.Unlock()

	go e.loop(ctx, h, period, done)

	e.logger.Debug("style enforcement started",
		zap.Stringer("handle", h),
		zap.Duration("period", period),
	)
}

// Stop cancels enforcement and waits for an in-flight tick to finish, so no
// style write can land after Stop returns.
func (e *Enforcer) Stop() {
	e.mu.Lock()
	cancel, done, h := e.cancel, e.done, e.handle
	e.cancel, e.done, e.handle = nil, nil, 0
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	e.logger.Debug("style enforcement stopped", zap.Stringer("handle", h))
}

// Running reports whether a loop is active.
func (e *Enforcer) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancel != nil
}

func (e *Enforcer) loop(ctx context.Context, h native.Handle, period time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(h)
		}
	}
}

// tick never propagates a failure; the next tick retries.
func (e *Enforcer) tick(h native.Handle) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("style enforcement tick panicked",
				zap.Stringer("handle", h),
				zap.Any("panic", r),
			)
		}
	}()

	if _, err := e.Enforce(h); err != nil {
		e.logger.Warn("style enforcement tick failed",
			zap.Stringer("handle", h),
			zap.Error(err),
		)
	}
}
