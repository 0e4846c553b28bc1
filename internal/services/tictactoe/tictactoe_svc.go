package tictactoe

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

type Mark string

const (
	MarkX Mark = "X"
	MarkO Mark = "O"
)

func (m Mark) other() Mark {
	if m == MarkX {
		return MarkO
	}
	return MarkX
}

// Outcome is the winner sum type: nil while playing, X, O or DRAW.
type Outcome string

const (
	OutcomeX    Outcome = "X"
	OutcomeO    Outcome = "O"
	OutcomeDraw Outcome = "DRAW"
)

type Role string

const (
	RoleX         Role = "X"
	RoleO         Role = "O"
	RoleSpectator Role = "SPECTATOR"
)

var (
	ErrGameFinished = errors.New("game already decided")
	ErrCellTaken    = errors.New("cell occupied")
	ErrBadCell      = errors.New("cell index out of range")
	ErrNotYourTurn  = errors.New("not this connection's turn")
)

// Seats holds the connection IDs seated as X and O. Spectators are not
// tracked; they only receive broadcasts.
type Seats struct {
	X *string `json:"X"`
	O *string `json:"O"`
}

// State is the full board state broadcast to the room after every
// accepted mutation.
type State struct {
	Board   [9]*Mark `json:"board"`
	XIsNext bool     `json:"xIsNext"`
	Winner  *Outcome `json:"winner"`
	Players Seats    `json:"players"`
}

// Emitter delivers events to the tictactoe room. Satisfied by
// ws.RoomEmitter.
type Emitter interface {
	ToConn(connID, event string, body any)
	ToRoom(event string, body any)
	ToOthers(senderID, event string, body any)
}

type initBody struct {
	Role  Role  `json:"role"`
	State State `json:"state"`
}

// Service is the authoritative tictactoe room.
type Service struct {
	mu      sync.Mutex
	emit    Emitter
	state   State
	starter Mark // first mover of the current round, flips on Reset
}

func NewService(emit Emitter) *Service {
	return &Service{
		emit:    emit,
		state:   State{XIsNext: true},
		starter: MarkX,
	}
}

// Join resolves the connection's seat idempotently: an existing seat is
// returned as-is, otherwise X then O fill in join order and later
// joiners are spectators. Always answers the joiner with its role plus
// the full state, and separately rebroadcasts the (possibly unchanged)
// state so observers stay in sync.
func (s *Service) Join(connID string) Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Self-healing for the duplicate-assignment bug class: if both
	// seats ever reference the same connection, O is force-cleared.
	if s.state.Players.X != nil && s.state.Players.O != nil &&
		*s.state.Players.X == *s.state.Players.O {
		s.state.Players.O = nil
		zap.L().Warn("tictactoe.duplicate_seat_healed", zap.String("conn", *s.state.Players.X))
	}

	role := s.seatLocked(connID)

	s.emit.ToConn(connID, "tictactoe-init", initBody{Role: role, State: s.cloneLocked()})
	s.emit.ToRoom("tictactoe-update", s.cloneLocked())
	zap.L().Info("tictactoe.join", zap.String("conn", connID), zap.String("role", string(role)))
	return role
}

func (s *Service) seatLocked(connID string) Role {
	p := &s.state.Players
	switch {
	case p.X != nil && *p.X == connID:
		return RoleX
	case p.O != nil && *p.O == connID:
		return RoleO
	case p.X == nil:
		id := connID
		p.X = &id
		return RoleX
	case p.O == nil:
		id := connID
		p.O = &id
		return RoleO
	default:
		return RoleSpectator
	}
}

// Move applies the caller's mark to the cell. Rejections leave the state
// untouched and broadcast nothing.
func (s *Service) Move(connID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.state.Board) {
		return ErrBadCell
	}
	if s.state.Winner != nil {
		return ErrGameFinished
	}
	if s.state.Board[index] != nil {
		return ErrCellTaken
	}

	mark := MarkO
	seat := s.state.Players.O
	if s.state.XIsNext {
		mark = MarkX
		seat = s.state.Players.X
	}
	if seat == nil || *seat != connID {
		return ErrNotYourTurn
	}

	m := mark
	s.state.Board[index] = &m
	s.state.XIsNext = !s.state.XIsNext
	s.state.Winner = checkWinner(s.state.Board)

	s.emit.ToRoom("tictactoe-update", s.cloneLocked())
	return nil
}

// Reset clears the board and winner for a rematch. The starting mark
// alternates each reset to balance the first-move advantage; the two
// seated connections keep their rivalry going.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.starter = s.starter.other()
	s.state.Board = [9]*Mark{}
	s.state.Winner = nil
	s.state.XIsNext = s.starter == MarkX

	s.emit.ToRoom("tictactoe-update", s.cloneLocked())
}

// Restart is the debug hard reset: initial board AND empty seats.
func (s *Service) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{XIsNext: true}
	s.starter = MarkX

	s.emit.ToRoom("tictactoe-update", s.cloneLocked())
	zap.L().Warn("tictactoe.hard_restart")
}

// Disconnect clears whichever seats match the departing connection.
// Both are checked independently; the duplicate-assignment bug class
// means we never assume only one can match.
func (s *Service) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if s.state.Players.X != nil && *s.state.Players.X == connID {
		s.state.Players.X = nil
		changed = true
	}
	if s.state.Players.O != nil && *s.state.Players.O == connID {
		s.state.Players.O = nil
		changed = true
	}
	if changed {
		s.emit.ToRoom("tictactoe-update", s.cloneLocked())
		zap.L().Info("tictactoe.leave", zap.String("conn", connID))
	}
}

// Snapshot returns a read-only copy for the REST surface.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneLocked()
}

// cloneLocked deep-copies the state so receivers never alias the
// authoritative pointers.
func (s *Service) cloneLocked() State {
	out := State{XIsNext: s.state.XIsNext}
	for i, c := range s.state.Board {
		if c != nil {
			m := *c
			out.Board[i] = &m
		}
	}
	if s.state.Winner != nil {
		w := *s.state.Winner
		out.Winner = &w
	}
	if s.state.Players.X != nil {
		id := *s.state.Players.X
		out.Players.X = &id
	}
	if s.state.Players.O != nil {
		id := *s.state.Players.O
		out.Players.O = &id
	}
	return out
}
