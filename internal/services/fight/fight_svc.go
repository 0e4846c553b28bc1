package fight

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Role string

const (
	RoleP1        Role = "P1"
	RoleP2        Role = "P2"
	RoleSpectator Role = "SPECTATOR"
)

type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusFighting Status = "FIGHTING"
	StatusGameOver Status = "GAME_OVER"
)

// WinnerDraw is broadcast when a fighter dies with no opponent seated.
const WinnerDraw = "DRAW"

var ErrNotFighting = errors.New("connection holds no fighter")

// Fighter is the authoritative record for one seated player. Spectators
// have no record; they only receive the broadcasts.
type Fighter struct {
	ID         string  `json:"id"`
	Role       Role    `json:"role"`
	Name       string  `json:"name"`
	Health     int     `json:"health"`
	Energy     int     `json:"energy"`
	IsBlocking bool    `json:"isBlocking"`
	Action     *string `json:"action"`
	Kills      int     `json:"kills"`
	Deaths     int     `json:"deaths"`
	Lives      int     `json:"lives"`
}

// StatePatch is a partial Fighter update. It is merged as reported: the
// coordinator never computes combat damage itself, it relays attack
// intents and persists whatever the affected client reports back. This
// is a deliberate trust boundary, not cheat-resistant.
type StatePatch struct {
	Health     *int  `json:"health,omitempty"`
	Energy     *int  `json:"energy,omitempty"`
	IsBlocking *bool `json:"isBlocking,omitempty"`
	Kills      *int  `json:"kills,omitempty"`
	Deaths     *int  `json:"deaths,omitempty"`
	Lives      *int  `json:"lives,omitempty"`
}

// Emitter delivers events to the fight room. Satisfied by ws.RoomEmitter.
type Emitter interface {
	ToConn(connID, event string, body any)
	ToRoom(event string, body any)
	ToOthers(senderID, event string, body any)
}

// Snapshot is the read-only projection served over REST.
type Snapshot struct {
	Status  Status             `json:"status"`
	Players map[string]Fighter `json:"players"`
}

type initGameBody struct {
	Role    Role               `json:"role"`
	Players map[string]Fighter `json:"players"`
}

type playerJoinedBody struct {
	ID     string  `json:"id"`
	Role   Role    `json:"role"`
	Player Fighter `json:"player"`
}

type playerActionBody struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type stateSyncBody struct {
	ID    string     `json:"id"`
	State StatePatch `json:"state"`
}

type countdownBody struct {
	Count int `json:"count"`
}

type gameOverBody struct {
	Winner string `json:"winner"`
}

type playerLeftBody struct {
	ID string `json:"id"`
}

// Service is the authoritative fight room. All mutations funnel through
// its single mutex; broadcasts happen under the lock so members observe
// them in serialization order.
type Service struct {
	mu         sync.Mutex
	emit       Emitter
	fighters   map[string]*Fighter
	status     Status
	startLives int
	tick       time.Duration
	countdowns map[string]context.CancelFunc // victim connID -> cancel
}

func NewService(emit Emitter, startLives int, tick time.Duration) *Service {
	return &Service{
		emit:       emit,
		fighters:   make(map[string]*Fighter),
		status:     StatusWaiting,
		startLives: startLives,
		tick:       tick,
		countdowns: make(map[string]context.CancelFunc),
	}
}

// Join seats the connection if a slot is free. Rejoins and late joiners
// are both normal outcomes: an existing fighter keeps its role, a third
// connection becomes a spectator with no record.
func (s *Service) Join(connID, name string) Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.fighters[connID]; ok {
		s.emit.ToConn(connID, "init-game", initGameBody{Role: f.Role, Players: s.playersLocked()})
		return f.Role
	}

	role := s.freeRoleLocked()
	if role == RoleSpectator {
		s.emit.ToConn(connID, "init-game", initGameBody{Role: role, Players: s.playersLocked()})
		return role
	}

	f := &Fighter{
		ID:     connID,
		Role:   role,
		Name:   name,
		Health: 100,
		Lives:  s.startLives,
	}
	s.fighters[connID] = f
	s.status = s.deriveStatusLocked()

	s.emit.ToConn(connID, "init-game", initGameBody{Role: role, Players: s.playersLocked()})
	s.emit.ToOthers(connID, "player-joined", playerJoinedBody{ID: connID, Role: role, Player: *f})
	zap.L().Info("fight.join", zap.String("conn", connID), zap.String("role", string(role)))
	return role
}

// Action relays an action tag to the rest of the room. No authoritative
// mutation happens here; damage resolution is delegated to the receiving
// peer, which reports the outcome back via UpdateState.
func (s *Service) Action(connID, actionType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fighters[connID]; !ok {
		return ErrNotFighting
	}
	s.emit.ToOthers(connID, "player-action", playerActionBody{ID: connID, Type: actionType})
	return nil
}

// UpdateState merges a partial Fighter patch as reported and rebroadcasts
// the delta. No bounds re-validation beyond what the sender clamped.
func (s *Service) UpdateState(connID string, patch StatePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.fighters[connID]
	if !ok {
		return ErrNotFighting
	}
	if patch.Health != nil {
		f.Health = *patch.Health
	}
	if patch.Energy != nil {
		f.Energy = *patch.Energy
	}
	if patch.IsBlocking != nil {
		f.IsBlocking = *patch.IsBlocking
	}
	if patch.Kills != nil {
		f.Kills = *patch.Kills
	}
	if patch.Deaths != nil {
		f.Deaths = *patch.Deaths
	}
	if patch.Lives != nil {
		f.Lives = *patch.Lives
	}
	s.emit.ToOthers(connID, "state-sync", stateSyncBody{ID: connID, State: patch})
	return nil
}

// PlayerDied processes the authoritative consequences of a death: the
// other seated fighter (there are at most two, so no tie-break) is the
// presumptive killer. Arms the respawn countdown while lives remain,
// otherwise ends the game.
func (s *Service) PlayerDied(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// terminal state: late death reports are dropped, never re-announced
	if s.status == StatusGameOver {
		return nil
	}
	victim, ok := s.fighters[connID]
	if !ok {
		return ErrNotFighting
	}

	var killer *Fighter
	for id, f := range s.fighters {
		if id != connID {
			killer = f
		}
	}

	victim.Deaths++
	victim.Lives--
	vd, vl := victim.Deaths, victim.Lives
	s.emit.ToRoom("state-sync", stateSyncBody{ID: victim.ID, State: StatePatch{Deaths: &vd, Lives: &vl}})
	if killer != nil {
		killer.Kills++
		kk := killer.Kills
		s.emit.ToRoom("state-sync", stateSyncBody{ID: killer.ID, State: StatePatch{Kills: &kk}})
	}

	if victim.Lives > 0 {
		s.armCountdownLocked(victim.ID)
		return nil
	}

	s.status = StatusGameOver
	winner := WinnerDraw
	if killer != nil {
		winner = string(killer.Role)
	}
	s.emit.ToRoom("game-over", gameOverBody{Winner: winner})
	zap.L().Info("fight.game_over", zap.String("winner", winner))
	return nil
}

// Disconnect frees the fighter's slot, cancels any armed countdown for it
// and announces the departure to whoever is left.
func (s *Service) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.countdowns[connID]; ok {
		cancel()
		delete(s.countdowns, connID)
	}
	if _, ok := s.fighters[connID]; !ok {
		return
	}
	delete(s.fighters, connID)
	s.status = s.deriveStatusLocked()
	s.emit.ToRoom("player-left", playerLeftBody{ID: connID})
	zap.L().Info("fight.leave", zap.String("conn", connID))
}

// Reset restores the initial empty room. Admin channel only.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, cancel := range s.countdowns {
		cancel()
		delete(s.countdowns, id)
	}
	s.fighters = make(map[string]*Fighter)
	s.status = StatusWaiting
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Status: s.status, Players: s.playersLocked()}
}

// Status reports the current derived room status.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Service) playersLocked() map[string]Fighter {
	out := make(map[string]Fighter, len(s.fighters))
	for id, f := range s.fighters {
		out[id] = *f
	}
	return out
}

func (s *Service) freeRoleLocked() Role {
	taken := map[Role]bool{}
	for _, f := range s.fighters {
		taken[f.Role] = true
	}
	switch {
	case !taken[RoleP1]:
		return RoleP1
	case !taken[RoleP2]:
		return RoleP2
	default:
		return RoleSpectator
	}
}

func (s *Service) deriveStatusLocked() Status {
	for _, f := range s.fighters {
		if f.Lives <= 0 {
			return StatusGameOver
		}
	}
	if len(s.fighters) < 2 {
		return StatusWaiting
	}
	return StatusFighting
}
