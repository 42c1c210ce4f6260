package roomhandler

import (
	"lobbyhub/internal/lobby"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RoomReader is the read-only slice of the registry these views need.
type RoomReader interface {
	Snapshot(code lobby.RoomCode) (lobby.Snapshot, bool)
	Summaries() []lobby.Summary
	Len() int
}

type Handler struct {
	rooms RoomReader
}

func New(rooms RoomReader) *Handler { return &Handler{rooms: rooms} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.health)
	r.GET("/rooms", h.list)
	r.GET("/rooms/:code", h.info)
}

// @Summary		Get room details
// @Description	Returns the roster, team buckets and event log of one live room.
// @Tags			Rooms
// @Param			code	path		string	true	"Room code"	default(A1B2C3)
// @Success		200		{object}	lobby.Snapshot
// @Failure		404		{object}	ErrorResponse
// @Router			/rooms/{code} [get]
func (h *Handler) info(c *gin.Context) {
	code := lobby.RoomCode(strings.ToUpper(c.Param("code")))
	snap, ok := h.rooms.Snapshot(code)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: lobby.ErrRoomNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary		List rooms
// @Description	Lists every live room ordered by code, optionally paginated.
// @Tags			Rooms
// @Param			limit	query		int	false	"Max results (1‑100)"	minimum(1)	maximum(100)	default(50)
// @Param			offset	query		int	false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		lobby.Summary
// @Failure		400		{object}	ErrorResponse
// @Router			/rooms [get]
func (h *Handler) list(c *gin.Context) {
	var q ListRoomsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	all := h.rooms.Summaries()
	if q.Offset >= len(all) {
		c.JSON(http.StatusOK, []lobby.Summary{})
		return
	}
	end := len(all)
	if q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	c.JSON(http.StatusOK, all[q.Offset:end])
}

// @Summary		Health check
// @Tags			Ops
// @Success		200	{object}	HealthResponse
// @Router			/healthz [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Rooms: h.rooms.Len()})
}
