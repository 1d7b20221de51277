package ws

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/domain/embed"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/infrastructure/monitoring"
)

const (
	writeWait      = 5 * time.Second
	pingPeriod     = 30 * time.Second
	subscribeQueue = 64
)

// clientMessage is what the host UI sends.
type clientMessage struct {
	Type string `json:"type"`
}

type snapshotMessage struct {
	Type      string     `json:"type"`
	Session   embed.Info `json:"session"`
	Timestamp time.Time  `json:"timestamp"`
}

// Handler manages event stream connections
type Handler struct {
	upgrader websocket.Upgrader
	bus      *embed.Bus
	info     func() embed.Info
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a stream handler. info supplies the snapshot sent on
// connect; metrics may be nil. Browser pages must come from one of origins,
// the same list the CORS middleware enforces.
func NewHandler(bus *embed.Bus, info func() embed.Info, origins []string, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		upgrader: websocket.Upgrader{CheckOrigin: middleware.CheckOrigin(origins)},
		bus:      bus,
		info:     info,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleConnection upgrades the request and forwards bus events until the
// client disconnects or the bus closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.bus.Subscribe(subscribeQueue)
	defer cancel()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	// gorilla allows one concurrent writer, so the reader hands replies to
	// the write loop.
	replies := make(chan any, 8)
	closed := make(chan struct{})
	go h.readLoop(conn, replies, closed)

	if err := h.write(conn, h.snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.write(conn, ev); err != nil {
				return
			}
			if h.metrics != nil {
				h.metrics.RecordWSMessage(string(ev.Type))
			}
		case msg := <-replies:
			if err := h.write(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) readLoop(conn *websocket.Conn, replies chan<- any, closed chan<- struct{}) {
	defer close(closed)
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var reply any
		switch msg.Type {
		case "ping":
			reply = gin.H{"type": "pong", "timestamp": time.Now()}
		case "snapshot":
			reply = h.snapshot()
		default:
			reply = gin.H{"type": "error", "error": "unknown message type"}
		}

		select {
		case replies <- reply:
		default:
			h.logger.Debug("dropping websocket reply", zap.String("type", msg.Type))
		}
	}
}

func (h *Handler) snapshot() snapshotMessage {
	return snapshotMessage{Type: "snapshot", Session: h.info(), Timestamp: time.Now()}
}

func (h *Handler) write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
		return err
	}
	return nil
}
