package embed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

type resizeRecorder struct {
	mu    sync.Mutex
	rects []native.Rect
	err   error
}

func (r *resizeRecorder) resize(_ context.Context, rect native.Rect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rects = append(r.rects, rect)
	return r.err
}

func (r *resizeRecorder) applied() []native.Rect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]native.Rect(nil), r.rects...)
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	rec := &resizeRecorder{err: errFake}
	d := NewDebouncer(rec.resize, 50*time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = d.Resize(context.Background(), native.Rect{Width: 100 + i, Height: 100})
		}(i)
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()

	applied := rec.applied()
	require.Len(t, applied, 1)
	assert.Equal(t, native.Rect{Width: 104, Height: 100}, applied[0])
	for _, err := range errs {
		assert.ErrorIs(t, err, errFake)
	}
}

func TestDebouncerSeparateBursts(t *testing.T) {
	rec := &resizeRecorder{}
	d := NewDebouncer(rec.resize, 10*time.Millisecond)

	require.NoError(t, d.Resize(context.Background(), native.Rect{Width: 1, Height: 1}))
	require.NoError(t, d.Resize(context.Background(), native.Rect{Width: 2, Height: 2}))

	assert.Len(t, rec.applied(), 2)
}

func TestDebouncerDisabled(t *testing.T) {
	rec := &resizeRecorder{}
	d := NewDebouncer(rec.resize, 0)

	require.NoError(t, d.Resize(context.Background(), native.Rect{Width: 3, Height: 3}))
	assert.Equal(t, []native.Rect{{Width: 3, Height: 3}}, rec.applied())
}

func TestDebouncerCallerCancellation(t *testing.T) {
	rec := &resizeRecorder{}
	d := NewDebouncer(rec.resize, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Resize(ctx, native.Rect{Width: 5, Height: 5})
	assert.ErrorIs(t, err, context.Canceled)

	// The scheduled resize still runs.
	require.Eventually(t, func() bool {
		return len(rec.applied()) == 1
	}, time.Second, 5*time.Millisecond)
}
