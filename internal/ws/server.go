package ws

import (
	"context"
	"net/http"
	"time"

	"arcadehub/internal/audit"
	"arcadehub/internal/services/fight"
	"arcadehub/internal/services/piano"
	"arcadehub/internal/services/tictactoe"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 12 * time.Second
	pingPeriod = 3 * time.Second // must be < pongWait

	maxFrameSize = 512
)

// ConnContext identifies the connection behind a dispatched event.
type ConnContext struct {
	ConnID string
}

type WsServer struct {
	hub     *Hub
	router  *Router
	fight   *fight.Service
	piano   *piano.Service
	ttt     *tictactoe.Service
	gameLog *audit.GameLog
}

func NewWsServer(h *Hub, fightSvc *fight.Service, pianoSvc *piano.Service, tttSvc *tictactoe.Service, gameLog *audit.GameLog) *WsServer {
	srv := &WsServer{
		hub:     h,
		router:  NewRouter(),
		fight:   fightSvc,
		piano:   pianoSvc,
		ttt:     tttSvc,
		gameLog: gameLog,
	}
	srv.registerHandlers() // ← all WS events configured here
	return srv
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // dev-only
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxFrameSize)

	// ─────────────────── Client connected ────────────────────────
	conn := &clientConn{id: uuid.NewString(), rawConn: rawConn}
	s.hub.Register(conn)
	zap.L().Info("ws.connect", zap.String("conn", conn.id))

	go s.reader(conn)
	go s.pinger(conn)
}

// ---------------------------------------------------------------------------
//  Event handlers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 fight room -----------------------------------------------------------
	Register(s.router, "join-fight",
		func(ctx context.Context, cc *ConnContext, req JoinFightRequest) error {
			s.moveToRoom(cc.ConnID, RoomFight)
			s.fight.Join(cc.ConnID, req.Name)
			return nil
		},
	)
	Register(s.router, "action",
		func(ctx context.Context, cc *ConnContext, req ActionRequest) error {
			if s.hub.Room(cc.ConnID) != RoomFight {
				return nil // never joined: defined as a no-op
			}
			return s.fight.Action(cc.ConnID, req.Type)
		},
	)
	Register(s.router, "update-state",
		func(ctx context.Context, cc *ConnContext, req fight.StatePatch) error {
			if s.hub.Room(cc.ConnID) != RoomFight {
				return nil
			}
			return s.fight.UpdateState(cc.ConnID, req)
		},
	)
	Register(s.router, "player-died",
		func(ctx context.Context, cc *ConnContext, _ struct{}) error {
			if s.hub.Room(cc.ConnID) != RoomFight {
				return nil
			}
			return s.fight.PlayerDied(cc.ConnID)
		},
	)

	// 🔹 piano room -----------------------------------------------------------
	Register(s.router, "join-piano",
		func(ctx context.Context, cc *ConnContext, _ struct{}) error {
			s.moveToRoom(cc.ConnID, RoomPiano)
			return nil
		},
	)
	Register(s.router, "play-note",
		func(ctx context.Context, cc *ConnContext, req PlayNoteRequest) error {
			if s.hub.Room(cc.ConnID) != RoomPiano {
				return nil
			}
			s.piano.PlayNote(cc.ConnID, req.Note)
			return nil
		},
	)

	// 🔹 tictactoe room -------------------------------------------------------
	Register(s.router, "join-tictactoe",
		func(ctx context.Context, cc *ConnContext, _ struct{}) error {
			s.moveToRoom(cc.ConnID, RoomTicTacToe)
			s.ttt.Join(cc.ConnID)
			return nil
		},
	)
	Register(s.router, "tictactoe-move",
		func(ctx context.Context, cc *ConnContext, req MoveRequest) error {
			if s.hub.Room(cc.ConnID) != RoomTicTacToe {
				return nil
			}
			return s.ttt.Move(cc.ConnID, req.Index)
		},
	)
	Register(s.router, "tictactoe-reset",
		func(ctx context.Context, cc *ConnContext, _ struct{}) error {
			if s.hub.Room(cc.ConnID) != RoomTicTacToe {
				return nil
			}
			s.ttt.Reset()
			return nil
		},
	)
	Register(s.router, "tictactoe-restart",
		func(ctx context.Context, cc *ConnContext, _ struct{}) error {
			if s.hub.Room(cc.ConnID) != RoomTicTacToe {
				return nil
			}
			s.ttt.Restart()
			return nil
		},
	)

	// 🔹 admin ----------------------------------------------------------------
	Register(s.router, "disconnect-all",
		func(ctx context.Context, cc *ConnContext, _ struct{}) error {
			s.DisconnectAll()
			return nil
		},
	)
}

// DisconnectAll resets every room to its initial state and severs all
// live connections. Operator recovery hook, not gameplay.
func (s *WsServer) DisconnectAll() {
	s.fight.Reset()
	s.piano.Reset()
	s.ttt.Restart()
	s.hub.DisconnectAll()
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

// moveToRoom joins the connection to roomName; if it was in a different
// room, the owning service gets a disconnect first so the old role is
// freed and republished.
func (s *WsServer) moveToRoom(connID, roomName string) {
	prev := s.hub.Join(roomName, connID)
	if prev != "" && prev != roomName {
		s.notifyLeave(prev, connID)
	}
}

func (s *WsServer) notifyLeave(roomName, connID string) {
	switch roomName {
	case RoomFight:
		s.fight.Disconnect(connID)
	case RoomTicTacToe:
		s.ttt.Disconnect(connID)
	case RoomPiano:
		// membership only, nothing to free
	}
}

func (s *WsServer) reader(conn *clientConn) {
	defer func() {
		room := s.hub.Unregister(conn.id)
		s.notifyLeave(room, conn.id)
		conn.close()
		zap.L().Info("ws.disconnect", zap.String("conn", conn.id))
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{ConnID: conn.id}

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1900*time.Millisecond)
		err := s.router.dispatch(ctx, cc, env)
		cancel()

		// Rejected events are dropped without an error frame: the client
		// prevents illegal moves itself, this is defense in depth.
		if err != nil {
			zap.L().Debug("ws.event_dropped",
				zap.String("conn", conn.id),
				zap.String("event", env.Event),
				zap.Error(err))
			continue
		}

		s.gameLog.Record(s.hub.Room(conn.id), env.Event, conn.id)
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.ping(); err != nil {
			conn.close()
			return
		}
	}
}
