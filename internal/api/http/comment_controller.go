package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/avdeev-m/epichat/internal/domain"
	"github.com/avdeev-m/epichat/internal/service"
	"github.com/avdeev-m/epichat/lib/logger/sl"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CommentController struct {
	relay service.RelayInteractor
	log   *slog.Logger
}

func NewCommentController(relay service.RelayInteractor, log *slog.Logger) *CommentController {
	if log == nil {
		log = slog.Default()
	}
	return &CommentController{relay: relay, log: log}
}

// originSession reads the caller's own session id, announced to it on
// websocket connect. A mutator that supplies it is not re-informed by the
// broadcast; the response body already carries the result.
func originSession(ctx *gin.Context) uuid.UUID {
	id, err := uuid.Parse(ctx.GetHeader("X-Session-ID"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (c *CommentController) List(ctx *gin.Context) {
	key := domain.CommentsRoom(ctx.Param("animeID"), ctx.Param("episodeID"))

	entries, err := c.relay.History(ctx.Request.Context(), key)
	if err != nil {
		c.log.Error("failed to list comments", "room", key.String(), sl.Err(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"comments": entries})
}

func (c *CommentController) Create(ctx *gin.Context) {
	type request struct {
		Body         string     `json:"body" binding:"required"`
		AuthorID     string     `json:"author_id" binding:"required"`
		AuthorName   string     `json:"author_name" binding:"required"`
		AuthorAvatar string     `json:"author_avatar"`
		IsAdmin      bool       `json:"is_admin"`
		CreatedAt    *time.Time `json:"created_at"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	in := service.SubmitCommentInput{
		AnimeID:   ctx.Param("animeID"),
		EpisodeID: ctx.Param("episodeID"),
		Body:      req.Body,
		Author: domain.Author{
			ID:      req.AuthorID,
			Name:    req.AuthorName,
			Avatar:  req.AuthorAvatar,
			IsAdmin: req.IsAdmin,
		},
		Origin: originSession(ctx),
	}
	if req.CreatedAt != nil {
		in.CreatedAt = *req.CreatedAt
	}

	entry, err := c.relay.SubmitComment(ctx.Request.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.log.Error("failed to create comment", sl.Err(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"comment": entry})
}

func (c *CommentController) Delete(ctx *gin.Context) {
	in := service.DeleteCommentInput{
		AnimeID:     ctx.Param("animeID"),
		EpisodeID:   ctx.Param("episodeID"),
		EntryID:     ctx.Param("commentID"),
		RequesterID: ctx.Query("author_id"),
		IsAdmin:     ctx.Query("is_admin") == "true",
		Origin:      originSession(ctx),
	}

	entry, err := c.relay.DeleteComment(ctx.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrCommentNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrForbidden):
			ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.log.Error("failed to delete comment", sl.Err(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"comment": entry})
}
