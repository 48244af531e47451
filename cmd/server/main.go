package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"contactgame/internal/config"
	"contactgame/internal/engine"
	"contactgame/internal/logger"
	"contactgame/internal/repository"
	"contactgame/internal/session"
	"contactgame/internal/store"
	"contactgame/internal/wsapi"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	redisStore := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisStore.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisStore.Ping(pingCtx); err != nil {
		logger.Fatal("failed to reach redis", "addr", cfg.RedisAddr, "err", err)
	}
	cancel()

	repo := repository.New(redisStore, cfg.CleanupDelay, cfg.GraceWindow)
	registry := session.NewRegistry()
	tokens := wsapi.NewTokenIssuer(cfg.JWTSecret)

	engineCfg := engine.Config{
		GameTimeLimit:                   cfg.GameTimeLimit,
		ContactAwaitingTime:             cfg.ContactWindow,
		PlayerDisconnectionAwaitingTime: cfg.GraceWindow,
		PlayersPerRoom:                  cfg.PlayersPerRoom,
	}

	handler := wsapi.NewHandler(registry, redisStore, repo, engineCfg, tokens)

	r := gin.Default()
	wsapi.RegisterRoutes(r, handler)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "err", err)
	}

	logger.Info("server exited")
}
