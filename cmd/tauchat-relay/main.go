package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/config"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/relay"
	pkglog "github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/log"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/pubsub"
)

func main() {
	// Load configuration
	cfg, err := config.LoadRelay()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize pub/sub
	ps, err := pubsub.NewPubSub(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to initialize pubsub")
	}
	defer ps.Close()

	ctx, cancel := context.WithCancel(pkglog.WithLogger(context.Background(), logger))
	defer cancel()

	// Initialize hub and relay
	hub := relay.NewHub()
	r := relay.New(hub, ps, cfg.Relay)
	if err := r.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start relay")
	}

	// Setup Gin router
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(pkglog.GinMiddleware(logger))
	relay.NewHandler(r, hub, cfg.WebSocket).RegisterRoutes(engine)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     engine,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", addr).
			Str("driver", cfg.PubSub.Driver).
			Str("socket", r.Socket()).
			Msg("tauchat-relay starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down tauchat-relay")

	// Hijacked WebSocket connections are not tracked by Shutdown; the hub
	// closes them when ctx is cancelled.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("tauchat-relay stopped")
}
