package ws

// Room names double as broadcast groups on the wire and as Kafka audit
// topics. A connection belongs to at most one of them at a time.
const (
	RoomFight     = "fight-room"
	RoomPiano     = "piano-room"
	RoomTicTacToe = "tictactoe-room"
)

type room struct {
	conns map[string]*clientConn // connID -> conn
}

func newRoom() *room { return &room{conns: map[string]*clientConn{}} }

func (r *room) add(c *clientConn)    { r.conns[c.id] = c }
func (r *room) remove(connID string) { delete(r.conns, connID) }

// snapshot returns the current members so the hub can do the write I/O
// outside its lock.
func (r *room) snapshot(excludeID string) []*clientConn {
	out := make([]*clientConn, 0, len(r.conns))
	for id, c := range r.conns {
		if id == excludeID {
			continue
		}
		out = append(out, c)
	}
	return out
}
