package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
	"github.com/GriffinCanCode/sketchbox/internal/shared/utils"
)

// Message types on the stream.
const (
	TypeRun     = "run"
	TypeResize  = "resize"
	TypeStop    = "stop"
	TypePing    = "ping"
	TypePong    = "pong"
	TypeSystem  = "system"
	TypeStarted = "started"
	TypeStopped = "stopped"
	TypeTick    = "tick"
	TypeError   = "error"
)

// DefaultTickEvery is how many frames pass between tick messages.
const DefaultTickEvery = 10

// Handler manages WebSocket preview connections. Each connection owns one
// preview session which only its own goroutine touches.
type Handler struct {
	cfg       preview.Config
	log       *logging.Logger
	metrics   *monitoring.Metrics
	upgrader  websocket.Upgrader
	tickEvery uint64
}

// NewHandler creates a new WebSocket handler
func NewHandler(cfg preview.Config, log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		cfg:     cfg,
		log:     logging.OrNop(log),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		tickEvery: DefaultTickEvery,
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(int64(utils.MaxSourceSize) + 4096)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	ctx := c.Request.Context()
	incoming := make(chan types.WSMessage)
	readErr := make(chan error, 1)
	go func() {
		for {
			var msg types.WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}
			select {
			case incoming <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	session := preview.NewSession(h.cfg, 0, 0, h.log, h.recorder())
	defer session.Close()

	fps := h.cfg.FPS
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	h.send(conn, types.WSMessage{
		Type:    TypeSystem,
		Message: "Connected to sketchbox preview stream",
		Data:    map[string]any{"session_id": session.ID, "fps": fps},
	})

	running := false
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		case msg := <-incoming:
			h.record("in", msg.Type)
			running = h.handle(conn, session, msg, running)
		case <-ticker.C:
			if !running {
				continue
			}
			tick := session.Step()
			for _, e := range tick.Errors {
				h.send(conn, types.WSMessage{Type: TypeError, Message: e})
			}
			if tick.Frame%h.tickEvery == 0 {
				h.send(conn, types.WSMessage{Type: TypeTick, Data: map[string]any{
					"frame":         tick.Frame,
					"millis":        tick.Millis,
					"presented":     tick.Presented,
					"commands":      tick.Commands,
					"cost_ms":       float64(tick.Cost) / float64(time.Millisecond),
					"state":         session.State().String(),
					"gpu_resources": session.GPUResources(),
				}})
			}
		}
	}
}

// handle applies one client message and returns whether the session should
// keep stepping.
func (h *Handler) handle(conn *websocket.Conn, session *preview.Session, msg types.WSMessage, running bool) bool {
	switch msg.Type {
	case TypeRun:
		if err := utils.ValidateSource(msg.Code); err != nil {
			h.sendError(conn, err.Error())
			return running
		}
		session.Resize(msg.Width, msg.Height)
		kind, errs := session.Load(msg.Kind, msg.Code)
		h.send(conn, types.WSMessage{
			Type: TypeStarted,
			Kind: kind.String(),
			Data: map[string]any{"state": session.State().String()},
		})
		for _, e := range errs {
			h.sendError(conn, e)
		}
		return true
	case TypeResize:
		session.Resize(msg.Width, msg.Height)
		return running
	case TypeStop:
		session.Stop()
		h.send(conn, types.WSMessage{Type: TypeStopped})
		return false
	case TypePing:
		h.send(conn, types.WSMessage{Type: TypePong})
		return running
	default:
		h.sendError(conn, "unknown message type")
		return running
	}
}

func (h *Handler) send(conn *websocket.Conn, msg types.WSMessage) error {
	h.record("out", msg.Type)
	return conn.WriteJSON(msg)
}

func (h *Handler) sendError(conn *websocket.Conn, message string) error {
	return h.send(conn, types.WSMessage{Type: TypeError, Message: message})
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}

// recorder keeps a nil *Metrics from becoming a non-nil sandbox.Recorder.
func (h *Handler) recorder() sandbox.Recorder {
	if h.metrics == nil {
		return nil
	}
	return h.metrics
}
