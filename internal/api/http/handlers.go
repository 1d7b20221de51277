package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/domain/embed"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

// Coordinator is the part of *embed.Coordinator the API drives.
type Coordinator interface {
	Launch(ctx context.Context) error
	Embed(ctx context.Context, rect native.Rect) (native.Handle, error)
	Resize(ctx context.Context, rect native.Rect) error
	SetVisible(ctx context.Context, visible bool) error
	Detach(ctx context.Context) error
	SetHost(h native.Handle)
	CloseWindow(h native.Handle) error
	Windows(substring string) ([]native.WindowInfo, error)
	Info() embed.Info
}

// Handlers contains all HTTP handlers
type Handlers struct {
	coord   Coordinator
	resizer *embed.Debouncer
	metrics *monitoring.Metrics
	logger  *zap.Logger
	started time.Time
	version string
}

// NewHandlers creates a handler set. Resize requests arriving within
// debounce of each other are coalesced; zero disables coalescing.
func NewHandlers(coord Coordinator, debounce time.Duration, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		coord:   coord,
		resizer: embed.NewDebouncer(coord.Resize, debounce),
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
		version: "0.1.0",
	}
}

// Register mounts the routes on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/embed", h.GetEmbed)
	r.POST("/embed", h.Embed)
	r.DELETE("/embed", h.Detach)
	r.POST("/embed/launch", h.Launch)
	r.POST("/embed/resize", h.Resize)
	r.POST("/embed/visible", h.SetVisible)

	r.GET("/windows", h.ListWindows)
	r.POST("/windows/:handle/close", h.CloseWindow)
}

type embedRequest struct {
	native.Rect
	// Host overrides the configured host window, e.g. "0x1a2b".
	Host *native.Handle `json:"host,omitempty"`
}

type visibleRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// Root identifies the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "embedhost",
		"version": h.version,
	})
}

// Health reports the session state and counters
func (h *Handlers) Health(c *gin.Context) {
	info := h.coord.Info()
	body := gin.H{
		"status": "healthy",
		"state":  info.State,
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// GetEmbed returns the current session snapshot
func (h *Handlers) GetEmbed(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.Info())
}

// Launch starts the editor without embedding it
func (h *Handlers) Launch(c *gin.Context) {
	if err := h.coord.Launch(c.Request.Context()); err != nil {
		h.fail(c, "launch", err)
		return
	}
	c.JSON(http.StatusAccepted, h.coord.Info())
}

// Embed launches the editor and reparents it at the requested rect
func (h *Handlers) Embed(c *gin.Context) {
	var req embedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Host != nil {
		h.coord.SetHost(*req.Host)
	}

	handle, err := h.coord.Embed(c.Request.Context(), req.Rect)
	if err != nil {
		h.fail(c, "embed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"handle":  handle,
		"session": h.coord.Info(),
	})
}

// Resize moves the embedded window. Bursts are coalesced and every caller
// in a burst gets the outcome of the last rect.
func (h *Handlers) Resize(c *gin.Context) {
	var rect native.Rect
	if err := c.ShouldBindJSON(&rect); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.resizer.Resize(c.Request.Context(), rect); err != nil {
		h.fail(c, "resize", err)
		return
	}
	c.JSON(http.StatusOK, h.coord.Info())
}

// SetVisible shows or hides the embedded window
func (h *Handlers) SetVisible(c *gin.Context) {
	var req visibleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.coord.SetVisible(c.Request.Context(), *req.Visible); err != nil {
		h.fail(c, "set_visible", err)
		return
	}
	c.JSON(http.StatusOK, h.coord.Info())
}

// Detach kills the editor and clears the session. A failed kill is still a
// completed detach and is reported as a warning.
func (h *Handlers) Detach(c *gin.Context) {
	err := h.coord.Detach(c.Request.Context())
	body := gin.H{
		"detached": true,
		"session":  h.coord.Info(),
	}
	if err != nil {
		h.logger.Warn("detach incomplete", zap.Error(err))
		body["warning"] = err.Error()
		body["kind"] = embed.KindOf(err)
	}
	c.JSON(http.StatusOK, body)
}

// ListWindows lists visible top-level windows, optionally filtered by title
func (h *Handlers) ListWindows(c *gin.Context) {
	windows, err := h.coord.Windows(c.Query("title"))
	if err != nil {
		h.fail(c, "list_windows", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"windows": windows,
		"count":   len(windows),
	})
}

// CloseWindow posts a close request to a stray window
func (h *Handlers) CloseWindow(c *gin.Context) {
	handle, err := native.ParseHandle(c.Param("handle"))
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.coord.CloseWindow(handle); err != nil {
		h.fail(c, "close_window", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"handle": handle})
}

func (h *Handlers) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
	}
	_ = c.Error(err)

	body := gin.H{"error": err.Error()}
	if kind := embed.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"kind":  embed.KindInvalidRequest,
	})
}
