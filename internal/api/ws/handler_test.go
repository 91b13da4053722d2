package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
)

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(preview.Config{ExecTimeout: 500 * time.Millisecond, FPS: 240, Seed: 1}, nil, nil)
	router.GET("/stream", h.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello types.WSMessage
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, TypeSystem, hello.Type)
	assert.NotEmpty(t, hello.Data["session_id"])
	return conn
}

// next reads until a message of type want arrives.
func next(t *testing.T, conn *websocket.Conn, want string) types.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg types.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return msg
		}
	}
}

func TestStreamRunsSketch(t *testing.T) {
	conn := dial(t)

	require.NoError(t, conn.WriteJSON(types.WSMessage{
		Type: TypeRun,
		Code: `function setup(){ createCanvas(40, 40) } function draw(){ background(0); circle(20, 20, 10) }`,
	}))

	started := next(t, conn, TypeStarted)
	assert.Equal(t, "sketch", started.Kind)

	tick := next(t, conn, TypeTick)
	assert.Positive(t, tick.Data["frame"])
	assert.Positive(t, tick.Data["presented"])

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: TypeStop}))
	next(t, conn, TypeStopped)
}

func TestStreamReportsErrors(t *testing.T) {
	conn := dial(t)

	require.NoError(t, conn.WriteJSON(types.WSMessage{
		Type: TypeRun,
		Kind: "sketch",
		Code: `function setup(){ createCanvas(40, 40) } function draw(){ nope() }`,
	}))
	next(t, conn, TypeStarted)

	msg := next(t, conn, TypeError)
	assert.Contains(t, msg.Message, "Error in animation frame")
}

func TestStreamProtocol(t *testing.T) {
	conn := dial(t)

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: TypePing}))
	next(t, conn, TypePong)

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: "dance"}))
	assert.Equal(t, "unknown message type", next(t, conn, TypeError).Message)

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: TypeRun, Code: "   "}))
	assert.Contains(t, next(t, conn, TypeError).Message, "Animation code is required")
}

func TestRecorderWithoutMetrics(t *testing.T) {
	h := NewHandler(preview.Config{}, nil, nil)
	assert.Nil(t, h.recorder())

	m := monitoring.NewMetrics(prometheus.NewRegistry())
	h = NewHandler(preview.Config{}, nil, m)
	assert.Equal(t, sandbox.Recorder(m), h.recorder())
}

func TestSessionWithoutMetricsLoads(t *testing.T) {
	h := NewHandler(preview.Config{ExecTimeout: 500 * time.Millisecond, Seed: 1}, nil, nil)
	s := preview.NewSession(h.cfg, 0, 0, nil, h.recorder())
	defer s.Close()

	assert.NotPanics(t, func() {
		s.Load("sketch", `function setup(){ createCanvas(10, 10) }`)
		s.Step()
	})
	assert.Empty(t, s.Errors())
}
