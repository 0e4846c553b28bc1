package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Membership(t *testing.T) {
	h := NewHub()
	c1 := &clientConn{id: "c1"}
	c2 := &clientConn{id: "c2"}
	h.Register(c1)
	h.Register(c2)

	assert.Equal(t, "", h.Join(RoomFight, "c1"))
	assert.Equal(t, "", h.Join(RoomFight, "c2"))
	assert.Equal(t, RoomFight, h.Room("c1"))
	assert.Equal(t, map[string]int{RoomFight: 2}, h.Stats())

	// joining another room leaves the previous one
	prev := h.Join(RoomPiano, "c1")
	assert.Equal(t, RoomFight, prev)
	assert.Equal(t, RoomPiano, h.Room("c1"))
	assert.Equal(t, map[string]int{RoomFight: 1, RoomPiano: 1}, h.Stats())

	// rejoining the same room is a no-op
	assert.Equal(t, RoomPiano, h.Join(RoomPiano, "c1"))
}

func TestHub_Unregister(t *testing.T) {
	h := NewHub()
	c := &clientConn{id: "c1"}
	h.Register(c)
	h.Join(RoomTicTacToe, "c1")

	room := h.Unregister("c1")

	require.Equal(t, RoomTicTacToe, room)
	assert.Equal(t, "", h.Room("c1"))
	assert.Equal(t, 0, h.Stats()[RoomTicTacToe])
}

// deadSocket returns a registered clientConn whose underlying socket is
// already closed, so the next writeJSON fails.
func deadSocket(t *testing.T, id string) *clientConn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	accepted := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		accepted <- conn
	}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	raw := <-accepted
	require.NoError(t, raw.Close())
	return &clientConn{id: id, rawConn: raw}
}

func TestHub_FailedWriteKeepsMembership(t *testing.T) {
	h := NewHub()
	c := deadSocket(t, "c1")
	h.Register(c)
	h.Join(RoomFight, "c1")

	// the write fails and severs the socket, but must not touch the
	// registry: the reader goroutine still needs the room to route the
	// service-side disconnect cleanup
	h.SendTo("c1", "state-sync", nil)
	assert.Equal(t, RoomFight, h.Room("c1"))

	h.BroadcastRoom(RoomFight, "countdown", nil)
	assert.Equal(t, RoomFight, h.Room("c1"))

	require.Equal(t, RoomFight, h.Unregister("c1"))
}

func TestHub_JoinUnknownConn(t *testing.T) {
	h := NewHub()

	// a connection that was never registered cannot enter a room
	assert.Equal(t, "", h.Join(RoomFight, "ghost"))
	assert.Equal(t, "", h.Room("ghost"))
	assert.Equal(t, 0, h.Stats()[RoomFight])
}
