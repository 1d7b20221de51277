package embed

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

// Debouncer coalesces bursts of resize requests, such as a continuous drag of
// the host window, into a single native resize once input has been quiet
// for the configured window. The last rect wins and every coalesced caller
// receives the result of the resize that was actually applied.
type Debouncer struct {
	resize func(ctx context.Context, r native.Rect) error
	quiet  time.Duration

	mu      sync.Mutex
	seq     uint64
	pending native.Rect
	timer   *time.Timer
	waiters []chan error
}

// NewDebouncer wraps resize. A non-positive quiet window disables debouncing.
func NewDebouncer(resize func(ctx context.Context, r native.Rect) error, quiet time.Duration) *Debouncer {
	return &Debouncer{resize: resize, quiet: quiet}
}

// Resize schedules r and blocks until the coalesced resize has run or ctx
// is done. Cancelling ctx does not cancel the scheduled resize.
func (d *Debouncer) Resize(ctx context.Context, r native.Rect) error {
	if d.quiet <= 0 {
		return d.resize(ctx, r)
	}

	ch := make(chan error, 1)

	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.pending = r
	d.waiters = append(d.waiters, ch)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(seq) })
	d.mu.Unlock()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fire runs only for the most recent schedule; a superseded timer that
// already started is a no-op.
func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	r := d.pending
	waiters := d.waiters
	d.waiters = nil
	d.timer = nil
	d.mu.Unlock()

	err := d.resize(context.Background(), r)
	for _, w := range waiters {
		w <- err
	}
}
