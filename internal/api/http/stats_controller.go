package http

import (
	"net/http"

	"github.com/avdeev-m/epichat/internal/hub"
	"github.com/avdeev-m/epichat/internal/repository"
	"github.com/gin-gonic/gin"
)

type StatsController struct {
	hub   *hub.Hub
	store repository.EntryStore
}

func NewStatsController(h *hub.Hub, store repository.EntryStore) *StatsController {
	return &StatsController{hub: h, store: store}
}

func (c *StatsController) Stats(ctx *gin.Context) {
	hubStats := c.hub.Stats()
	storeStats := c.store.Stats()

	ctx.JSON(http.StatusOK, gin.H{
		"sessions":         hubStats.Sessions,
		"subscribed_rooms": hubStats.Rooms,
		"stored_rooms":     storeStats.Rooms,
		"entries":          storeStats.Entries,
	})
}
