package piano

import "sync"

// Emitter delivers events to the piano room. Satisfied by ws.RoomEmitter.
type Emitter interface {
	ToConn(connID, event string, body any)
	ToRoom(event string, body any)
	ToOthers(senderID, event string, body any)
}

type noteBody struct {
	Note     string `json:"note"`
	PlayerID string `json:"playerId"`
}

// Service is a stateless relay: the coordinator holds no authoritative
// note state, each played note is forwarded to every other room member
// tagged with the sender. It still counts notes so the REST surface has
// something to report.
type Service struct {
	mu        sync.Mutex
	emit      Emitter
	noteCount uint64
}

func NewService(emit Emitter) *Service {
	return &Service{emit: emit}
}

func (s *Service) PlayNote(connID, note string) {
	s.mu.Lock()
	s.noteCount++
	s.mu.Unlock()
	s.emit.ToOthers(connID, "play-note", noteBody{Note: note, PlayerID: connID})
}

// NotesPlayed reports how many notes were relayed since the last reset.
func (s *Service) NotesPlayed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noteCount
}

// Reset exists for the admin sweep; there is no durable state to clear
// beyond the relay counter.
func (s *Service) Reset() {
	s.mu.Lock()
	s.noteCount = 0
	s.mu.Unlock()
}
