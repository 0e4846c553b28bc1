package roomhandler

import (
	"net/http"

	"arcadehub/internal/services/fight"
	"arcadehub/internal/services/piano"
	"arcadehub/internal/services/tictactoe"
	"arcadehub/internal/ws"

	"github.com/gin-gonic/gin"
)

// Handler serves read-only projections of the room state. There is no
// mutation surface here: all gameplay goes over the socket.
type Handler struct {
	hub   *ws.Hub
	fight *fight.Service
	piano *piano.Service
	ttt   *tictactoe.Service
}

func New(hub *ws.Hub, fightSvc *fight.Service, pianoSvc *piano.Service, tttSvc *tictactoe.Service) *Handler {
	return &Handler{hub: hub, fight: fightSvc, piano: pianoSvc, ttt: tttSvc}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/rooms", h.list)
	r.GET("/rooms/fight", h.fightState)
	r.GET("/rooms/tictactoe", h.tictactoeState)
}

func (h *Handler) list(c *gin.Context) {
	counts := h.hub.Stats()
	c.JSON(http.StatusOK, RoomListResponse{
		Rooms: []RoomInfo{
			{Name: ws.RoomFight, Connections: counts[ws.RoomFight], Status: string(h.fight.Status())},
			{Name: ws.RoomPiano, Connections: counts[ws.RoomPiano], NotesPlayed: h.piano.NotesPlayed()},
			{Name: ws.RoomTicTacToe, Connections: counts[ws.RoomTicTacToe]},
		},
	})
}

func (h *Handler) fightState(c *gin.Context) {
	c.JSON(http.StatusOK, h.fight.Snapshot())
}

func (h *Handler) tictactoeState(c *gin.Context) {
	c.JSON(http.StatusOK, h.ttt.Snapshot())
}
