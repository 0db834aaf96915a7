package signaling

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelayServer(t *testing.T) (*Relay, *httptest.Server) {
	t.Helper()
	r := NewRelay()
	e := echo.New()
	r.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		r.Close()
		srv.Close()
	})
	return r, srv
}

func dial(t *testing.T, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/signal/" + room + "?token=secret"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRelayForwardsWithinRoomOnly(t *testing.T) {
	r, srv := newRelayServer(t)

	a := dial(t, srv, "table-1")
	b := dial(t, srv, "table-1")
	other := dial(t, srv, "table-2")
	require.Eventually(t, func() bool { return r.Peers("table-1") == 2 && r.Peers("table-2") == 1 },
		2*time.Second, 10*time.Millisecond)

	offer := []byte(`{"type":"offer","sdp":"v=0"}`)
	require.NoError(t, a.WriteMessage(websocket.TextMessage, offer))

	require.NoError(t, b.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, got, err := b.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.Equal(t, offer, got)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "peers of other rooms must not receive the frame")

	require.NoError(t, a.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = a.ReadMessage()
	assert.Error(t, err, "the sender does not get its own frame back")
}

func TestRelayRemovesEmptyRooms(t *testing.T) {
	r, srv := newRelayServer(t)

	a := dial(t, srv, "lonely")
	require.Eventually(t, func() bool { return r.Rooms() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return r.Rooms() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRelayRequiresToken(t *testing.T) {
	_, srv := newRelayServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/signal/table-1"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBroadcastDropsSlowPeer(t *testing.T) {
	r := NewRelay(WithSendQueue(1))
	from := &peer{id: "a", room: "r", send: make(chan frame, 1), done: make(chan struct{})}
	slow := &peer{id: "b", room: "r", send: make(chan frame, 1), done: make(chan struct{})}
	r.join(from)
	r.join(slow)

	r.broadcast(from, frame{kind: websocket.TextMessage, data: []byte("1")})
	assert.Equal(t, 2, r.Peers("r"))

	r.broadcast(from, frame{kind: websocket.TextMessage, data: []byte("2")})
	assert.Equal(t, 1, r.Peers("r"))
	select {
	case <-slow.done:
	default:
		t.Fatal("slow peer should be closed")
	}
}
