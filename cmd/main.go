package main

import (
	"log/slog"
	"os"

	httpapi "github.com/avdeev-m/epichat/internal/api/http"
	"github.com/avdeev-m/epichat/internal/api/ws"
	"github.com/avdeev-m/epichat/internal/config"
	"github.com/avdeev-m/epichat/internal/hub"
	"github.com/avdeev-m/epichat/internal/repository"
	"github.com/avdeev-m/epichat/internal/service"
	"github.com/avdeev-m/epichat/lib/logger/slogpretty"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	store := repository.NewInMemoryEntryStore(repository.Caps{
		Comments: cfg.Rooms.CommentHistoryLimit,
		Chat:     cfg.Rooms.ChatHistoryLimit,
	})
	sessions := hub.NewHub(log)

	relayService := service.NewRelayService(store, sessions, log)

	commentController := httpapi.NewCommentController(relayService, log)
	chatController := httpapi.NewChatController(relayService, log)
	statsController := httpapi.NewStatsController(sessions, store)
	wsController := ws.NewController(relayService, sessions, log)

	router := httpapi.SetupRouter(
		cfg.CORS.AllowedOrigins,
		commentController,
		chatController,
		statsController,
		wsController,
	)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
