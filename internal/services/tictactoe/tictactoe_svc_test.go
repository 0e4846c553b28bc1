package tictactoe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEvent struct {
	target string
	event  string
	body   any
}

type mockEmitter struct {
	mu     sync.Mutex
	events []sentEvent
}

func (m *mockEmitter) ToConn(connID, event string, body any) {
	m.record(sentEvent{target: "conn:" + connID, event: event, body: body})
}

func (m *mockEmitter) ToRoom(event string, body any) {
	m.record(sentEvent{target: "room", event: event, body: body})
}

func (m *mockEmitter) ToOthers(senderID, event string, body any) {
	m.record(sentEvent{target: "others:" + senderID, event: event, body: body})
}

func (m *mockEmitter) record(e sentEvent) {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
}

func (m *mockEmitter) count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func mark(m Mark) *Mark { return &m }

func TestJoin_SeatAssignment(t *testing.T) {
	svc := NewService(&mockEmitter{})

	assert.Equal(t, RoleX, svc.Join("a"))
	assert.Equal(t, RoleO, svc.Join("b"))
	assert.Equal(t, RoleSpectator, svc.Join("c"))

	// duplicate join is recognized, not reassigned
	assert.Equal(t, RoleX, svc.Join("a"))
	assert.Equal(t, RoleO, svc.Join("b"))
}

func TestJoin_BroadcastsEvenWhenUnchanged(t *testing.T) {
	emit := &mockEmitter{}
	svc := NewService(emit)

	svc.Join("a")
	svc.Join("a")

	assert.Equal(t, 2, emit.count("tictactoe-init"))
	assert.Equal(t, 2, emit.count("tictactoe-update"))
}

func TestJoin_SelfHealsDuplicateSeat(t *testing.T) {
	svc := NewService(&mockEmitter{})
	id := "a"
	svc.state.Players.X = &id
	dup := "a"
	svc.state.Players.O = &dup

	// O is force-cleared first, so the new joiner can take it
	assert.Equal(t, RoleO, svc.Join("b"))
	require.NotNil(t, svc.state.Players.X)
	assert.Equal(t, "a", *svc.state.Players.X)
}

func TestMove_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Service)
		conn    string
		index   int
		wantErr error
	}{
		{
			name:    "out of range",
			conn:    "a",
			index:   9,
			wantErr: ErrBadCell,
		},
		{
			name:    "negative index",
			conn:    "a",
			index:   -1,
			wantErr: ErrBadCell,
		},
		{
			name: "occupied cell",
			setup: func(s *Service) {
				require.NoError(t, s.Move("a", 0))
			},
			conn:    "b",
			index:   0,
			wantErr: ErrCellTaken,
		},
		{
			name:    "not the mover's turn",
			conn:    "b",
			index:   4,
			wantErr: ErrNotYourTurn,
		},
		{
			name:    "spectator cannot move",
			conn:    "c",
			index:   4,
			wantErr: ErrNotYourTurn,
		},
		{
			name: "finished game",
			setup: func(s *Service) {
				s.state.Winner = mustOutcome(OutcomeX)
			},
			conn:    "a",
			index:   4,
			wantErr: ErrGameFinished,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emit := &mockEmitter{}
			svc := NewService(emit)
			svc.Join("a")
			svc.Join("b")
			svc.Join("c")
			if tt.setup != nil {
				tt.setup(svc)
			}
			before := svc.Snapshot()
			updatesBefore := emit.count("tictactoe-update")

			err := svc.Move(tt.conn, tt.index)

			assert.ErrorIs(t, err, tt.wantErr)
			after := svc.Snapshot()
			assert.Equal(t, before.Board, after.Board)
			assert.Equal(t, before.XIsNext, after.XIsNext)
			assert.Equal(t, before.Winner, after.Winner)
			// rejected moves broadcast nothing
			assert.Equal(t, updatesBefore, emit.count("tictactoe-update"))
		})
	}
}

func mustOutcome(o Outcome) *Outcome { return &o }

func TestMove_ColumnWinScenario(t *testing.T) {
	svc := NewService(&mockEmitter{})
	svc.Join("a") // X
	svc.Join("b") // O

	require.NoError(t, svc.Move("a", 0))
	require.NoError(t, svc.Move("b", 1))
	require.NoError(t, svc.Move("a", 3))
	require.NoError(t, svc.Move("b", 2))
	require.NoError(t, svc.Move("a", 6)) // completes [0,3,6]

	snap := svc.Snapshot()
	require.NotNil(t, snap.Winner)
	assert.Equal(t, OutcomeX, *snap.Winner)

	// no further moves accepted
	assert.ErrorIs(t, svc.Move("b", 4), ErrGameFinished)
}

func TestCheckWinner(t *testing.T) {
	tests := []struct {
		name  string
		board [9]*Mark
		want  *Outcome
	}{
		{
			name: "open game",
			board: [9]*Mark{
				mark(MarkX), nil, nil,
				nil, mark(MarkO), nil,
				nil, nil, nil,
			},
			want: nil,
		},
		{
			name: "top row X",
			board: [9]*Mark{
				mark(MarkX), mark(MarkX), mark(MarkX),
				mark(MarkO), mark(MarkO), nil,
				nil, nil, nil,
			},
			want: mustOutcome(OutcomeX),
		},
		{
			name: "anti-diagonal O",
			board: [9]*Mark{
				mark(MarkX), mark(MarkX), mark(MarkO),
				mark(MarkX), mark(MarkO), nil,
				mark(MarkO), nil, nil,
			},
			want: mustOutcome(OutcomeO),
		},
		{
			name: "full board draw",
			board: [9]*Mark{
				mark(MarkX), mark(MarkO), mark(MarkX),
				mark(MarkX), mark(MarkO), mark(MarkO),
				mark(MarkO), mark(MarkX), mark(MarkX),
			},
			want: mustOutcome(OutcomeDraw),
		},
		{
			name: "triple wins over full-board draw",
			board: [9]*Mark{
				mark(MarkX), mark(MarkX), mark(MarkX),
				mark(MarkX), mark(MarkO), mark(MarkO),
				mark(MarkO), mark(MarkO), mark(MarkX),
			},
			want: mustOutcome(OutcomeX),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkWinner(tt.board)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestReset_AlternatesStarter(t *testing.T) {
	svc := NewService(&mockEmitter{})
	svc.Join("a")
	svc.Join("b")
	require.NoError(t, svc.Move("a", 0))

	svc.Reset()
	snap := svc.Snapshot()
	assert.Equal(t, [9]*Mark{}, snap.Board)
	assert.Nil(t, snap.Winner)
	assert.False(t, snap.XIsNext, "O starts after the first reset")
	assert.Equal(t, MarkO, svc.starter)

	// seats survive resets: the rivalry continues
	require.NotNil(t, snap.Players.X)
	require.NotNil(t, snap.Players.O)

	svc.Reset()
	snap = svc.Snapshot()
	assert.True(t, snap.XIsNext)
	assert.Equal(t, MarkX, svc.starter)
}

func TestRestart_ClearsSeats(t *testing.T) {
	svc := NewService(&mockEmitter{})
	svc.Join("a")
	svc.Join("b")
	require.NoError(t, svc.Move("a", 0))

	svc.Restart()

	snap := svc.Snapshot()
	assert.Equal(t, [9]*Mark{}, snap.Board)
	assert.Nil(t, snap.Players.X)
	assert.Nil(t, snap.Players.O)
	assert.True(t, snap.XIsNext)
}

func TestDisconnect_ClearsMatchingSeatOnly(t *testing.T) {
	emit := &mockEmitter{}
	svc := NewService(emit)
	svc.Join("a")
	svc.Join("b")
	updates := emit.count("tictactoe-update")

	svc.Disconnect("b")

	snap := svc.Snapshot()
	require.NotNil(t, snap.Players.X)
	assert.Equal(t, "a", *snap.Players.X)
	assert.Nil(t, snap.Players.O)
	assert.Equal(t, updates+1, emit.count("tictactoe-update"))

	// a stranger leaving changes nothing and broadcasts nothing
	svc.Disconnect("ghost")
	assert.Equal(t, updates+1, emit.count("tictactoe-update"))

	// next joiner takes the freed O seat
	assert.Equal(t, RoleO, svc.Join("c"))
}
