package http

import (
	"net/http"
	"sort"

	"github.com/avdeev-m/epichat/internal/api/ws"
	"github.com/avdeev-m/epichat/internal/metric"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(
	allowedOrigins []string,
	comments *CommentController,
	chat *ChatController,
	stats *StatsController,
	relay *ws.Controller,
) *gin.Engine {
	router := gin.Default()
	router.Use(metric.Middleware())

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	if stats != nil {
		api.GET("/stats", stats.Stats)
	}

	episodes := api.Group("/animes/:animeID/episodes/:episodeID")

	if comments != nil {
		episodes.GET("/comments", comments.List)
		episodes.POST("/comments", comments.Create)
		episodes.DELETE("/comments/:commentID", comments.Delete)
	}

	if chat != nil {
		episodes.GET("/chat", chat.History)
	}

	if relay != nil {
		api.GET("/ws", relay.Serve)
	}

	// Unmatched routes answer with the list of valid ones so clients can
	// discover the surface.
	router.NoRoute(func(ctx *gin.Context) {
		routes := make([]string, 0, len(router.Routes()))
		for _, route := range router.Routes() {
			routes = append(routes, route.Method+" "+route.Path)
		}
		sort.Strings(routes)
		ctx.JSON(http.StatusNotFound, gin.H{"error": "route not found", "routes": routes})
	})

	return router
}
