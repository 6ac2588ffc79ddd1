package http

import (
	"log/slog"
	"net/http"

	"github.com/avdeev-m/epichat/internal/domain"
	"github.com/avdeev-m/epichat/internal/service"
	"github.com/avdeev-m/epichat/lib/logger/sl"
	"github.com/gin-gonic/gin"
)

type ChatController struct {
	relay service.RelayInteractor
	log   *slog.Logger
}

func NewChatController(relay service.RelayInteractor, log *slog.Logger) *ChatController {
	if log == nil {
		log = slog.Default()
	}
	return &ChatController{relay: relay, log: log}
}

func (c *ChatController) History(ctx *gin.Context) {
	key := domain.ChatRoom(ctx.Param("animeID"), ctx.Param("episodeID"))

	entries, err := c.relay.History(ctx.Request.Context(), key)
	if err != nil {
		c.log.Error("failed to list chat history", "room", key.String(), sl.Err(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"messages": entries})
}
