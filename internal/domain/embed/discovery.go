package embed

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

// Phase is one discovery pass: a title fragment and its retry budget.
type Phase struct {
	Fragment string
	Attempts int
	Delay    time.Duration
}

// Discovery finds visible top-level windows by title.
type Discovery struct {
	bridge   Bridge
	logger   *zap.Logger
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewDiscovery creates a discovery bound to bridge.
func NewDiscovery(bridge Bridge, logger *zap.Logger) *Discovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{
		bridge:   bridge,
		logger:   logger,
		observer: nopObserver{},
		sleep:    sleepCtx,
	}
}

// Find returns the first visible window whose title contains substring
// (case-sensitive). It enumerates at most maxAttempts times, sleeping delay
// between attempts but not after the last, and returns ErrNotFound when the
// budget is exhausted.
func (d *Discovery) Find(ctx context.Context, substring string, maxAttempts int, delay time.Duration) (native.Handle, error) {
	w, err := d.find(ctx, substring, maxAttempts, delay)
	return w.Handle, err
}

func (d *Discovery) find(ctx context.Context, substring string, maxAttempts int, delay time.Duration) (native.WindowInfo, error) {
	if substring == "" {
		return native.WindowInfo{}, ErrNotFound
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return native.WindowInfo{}, err
		}

		w, ok := d.scan(substring)
		d.observer.DiscoveryAttempt(ok)
		if ok {
			d.logger.Debug("window found",
				zap.String("fragment", substring),
				zap.Stringer("handle", w.Handle),
				zap.Int("pid", w.PID),
				zap.Int("attempt", attempt),
			)
			return w, nil
		}

		if attempt == maxAttempts {
			break
		}
		if err := d.sleep(ctx, delay); err != nil {
			return native.WindowInfo{}, err
		}
	}

	d.logger.Debug("window not found",
		zap.String("fragment", substring),
		zap.Int("attempts", maxAttempts),
	)
	return native.WindowInfo{}, ErrNotFound
}

// FindTwoPhase runs each phase in order with its own budget and returns the
// matched window, including its owning process. Phases with an empty
// fragment are skipped.
func (d *Discovery) FindTwoPhase(ctx context.Context, phases ...Phase) (native.WindowInfo, error) {
	for _, p := range phases {
		if p.Fragment == "" {
			continue
		}
		w, err := d.find(ctx, p.Fragment, p.Attempts, p.Delay)
		if err == nil {
			return w, nil
		}
		if err != ErrNotFound {
			return native.WindowInfo{}, err
		}
		d.logger.Info("discovery phase exhausted", zap.String("fragment", p.Fragment))
	}
	return native.WindowInfo{}, ErrNotFound
}

// List returns every visible window whose title contains substring. An
// empty substring lists all visible titled windows.
func (d *Discovery) List(substring string) ([]native.WindowInfo, error) {
	all, err := d.bridge.EnumerateVisibleWindows()
	if err != nil {
		return nil, err
	}
	if substring == "" {
		return all, nil
	}
	matches := make([]native.WindowInfo, 0, len(all))
	for _, w := range all {
		if strings.Contains(w.Title, substring) {
			matches = append(matches, w)
		}
	}
	return matches, nil
}

// scan performs one enumeration. Enumeration errors count as a miss.
func (d *Discovery) scan(substring string) (native.WindowInfo, bool) {
	windows, err := d.bridge.EnumerateVisibleWindows()
	if err != nil {
		d.logger.Warn("window enumeration failed", zap.Error(err))
		return native.WindowInfo{}, false
	}
	for _, w := range windows {
		if strings.Contains(w.Title, substring) {
			return w, true
		}
	}
	return native.WindowInfo{}, false
}
