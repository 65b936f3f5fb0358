package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dfryer1193/paper/internal/config"
	"github.com/dfryer1193/paper/internal/logging"
	"github.com/dfryer1193/paper/internal/middleware"
	"github.com/dfryer1193/paper/internal/rest"
	"github.com/dfryer1193/paper/posting/domain"
	"github.com/dfryer1193/paper/posting/persistence"
	"github.com/dfryer1193/paper/posting/persistence/postgres"
	"github.com/dfryer1193/paper/shared/db/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	posts, ping, closeStore, err := openStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open post store")
	}
	defer closeStore()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(gin.CustomRecovery(middleware.HandlePanics()))
	rest.NewApi(r, posts, ping)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
		return
	}

	log.Info().Msg("Server stopped")
}

// openStore picks PostgreSQL when DATABASE_URL is set and SQLite otherwise
func openStore(ctx context.Context, cfg *config.Config) (domain.PostRepository, rest.Pinger, func(), error) {
	if cfg.UsePostgres() {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Init(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		log.Info().Msg("Using PostgreSQL post store")
		return postgres.NewPostRepository(pool), pool.Ping, pool.Close, nil
	}

	database := sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.SQLitePath))
	if err := database.Connect(); err != nil {
		return nil, nil, nil, err
	}
	log.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite post store")

	closeDB := func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
	return persistence.NewPostRepository(database.DB()), database.Ping, closeDB, nil
}
