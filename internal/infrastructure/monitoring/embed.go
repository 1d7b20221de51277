package monitoring

import (
	"time"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/domain/embed"
)

// EmbedMetrics records coordinator telemetry. It implements embed.Observer.
type EmbedMetrics struct {
	m *Metrics
}

var _ embed.Observer = (*EmbedMetrics)(nil)

// NewEmbedMetrics binds the embedding observer to m and marks the session idle.
func NewEmbedMetrics(m *Metrics) *EmbedMetrics {
	m.State.WithLabelValues(embed.StateIdle.String()).Set(1)
	return &EmbedMetrics{m: m}
}

func (e *EmbedMetrics) StateChanged(from, to embed.State) {
	e.m.State.WithLabelValues(from.String()).Set(0)
	e.m.State.WithLabelValues(to.String()).Set(1)
	e.m.Transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (e *EmbedMetrics) DiscoveryAttempt(found bool) {
	result := "miss"
	if found {
		result = "found"
	}
	e.m.DiscoveryAttempts.WithLabelValues(result).Inc()

	e.m.mu.Lock()
	e.m.snapshot.DiscoveryAttempts++
	e.m.mu.Unlock()
}

func (e *EmbedMetrics) StyleCorrected() {
	e.m.StyleCorrections.Inc()

	e.m.mu.Lock()
	e.m.snapshot.StyleCorrections++
	e.m.mu.Unlock()
}

// Operation labels the outcome with the error kind, "ok" on success.
func (e *EmbedMetrics) Operation(op string, err error, took time.Duration) {
	result := "ok"
	if err != nil {
		result = string(embed.KindOf(err))
		if result == "" {
			result = "error"
		}
		if op == "embed" {
			e.m.mu.Lock()
			e.m.snapshot.EmbedFailures++
			e.m.mu.Unlock()
		}
	}
	e.m.Operations.WithLabelValues(op, result).Inc()
	e.m.OperationDuration.WithLabelValues(op).Observe(took.Seconds())
}
