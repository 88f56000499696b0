package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/companion/internal/heartbeat"
	"github.com/lumenlabs/companion/internal/logging"
)

func newTestServer(t *testing.T) (*Handler, *httptest.Server, *logging.Logger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.NewDevelopment()
	h := NewHandler(log, nil)

	r := gin.New()
	r.GET("/stream", h.Stream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return h, srv, log
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestStreamsLogEntries(t *testing.T) {
	_, srv, log := newTestServer(t)

	log.Info("before connect")
	conn := dial(t, srv)

	// Backlog replay delivers the pre-connect entry.
	event := readEvent(t, conn)
	assert.Equal(t, "log", event.Type)
}

func TestStreamsLiveLogs(t *testing.T) {
	h, srv, log := newTestServer(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	log.Info("live entry after connect")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		event := readEvent(t, conn)
		data, ok := event.Data.(map[string]interface{})
		if ok && data["message"] == "live entry after connect" {
			return
		}
	}
	t.Fatal("live log entry never arrived")
}

func TestBroadcastPulse(t *testing.T) {
	h, srv, _ := newTestServer(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	h.BroadcastPulse(heartbeat.Pulse{Count: 7, LastStatus: "ok"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		event := readEvent(t, conn)
		if event.Type == "heartbeat" {
			data := event.Data.(map[string]interface{})
			assert.Equal(t, float64(7), data["count"])
			return
		}
	}
	t.Fatal("heartbeat pulse never arrived")
}

func TestClientCountDropsOnDisconnect(t *testing.T) {
	h, srv, _ := newTestServer(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}
