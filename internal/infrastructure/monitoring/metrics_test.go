package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/domain/embed"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestEmbedMetricsTracksState(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	em := NewEmbedMetrics(m)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.State.WithLabelValues("idle")))

	em.StateChanged(embed.StateIdle, embed.StateLaunching)
	em.StateChanged(embed.StateLaunching, embed.StateDiscovering)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.State.WithLabelValues("idle")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.State.WithLabelValues("launching")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.State.WithLabelValues("discovering")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("idle", "launching")))
}

func TestEmbedMetricsOperations(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	em := NewEmbedMetrics(m)

	em.Operation("embed", nil, 2*time.Second)
	em.Operation("embed", embed.ErrWindowNotFound, 5*time.Second)
	em.Operation("detach", errors.New("plain"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("embed", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("embed", "window_not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("detach", "error")))
	assert.Equal(t, int64(1), m.Snapshot().EmbedFailures)
}

func TestEmbedMetricsCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	em := NewEmbedMetrics(m)

	em.DiscoveryAttempt(false)
	em.DiscoveryAttempt(false)
	em.DiscoveryAttempt(true)
	em.StyleCorrected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DiscoveryAttempts.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DiscoveryAttempts.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StyleCorrections))

	s := m.Snapshot()
	assert.Equal(t, int64(3), s.DiscoveryAttempts)
	assert.Equal(t, int64(1), s.StyleCorrections)
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(Middleware(m))
	r.POST("/windows/:handle/close", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for _, h := range []string{"0x1", "0x2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/windows/"+h+"/close", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/windows/:handle/close", "404")))
	assert.Equal(t, int64(2), m.Snapshot().TotalErrors)
}

func TestWSConnectionGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()
	m.RecordWSMessage("embedded")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, int64(1), m.Snapshot().ActiveConnections)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSMessages.WithLabelValues("embedded")))
}
