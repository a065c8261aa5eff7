package app

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"notifyrelay/internal/config"
	"notifyrelay/internal/history"
	"notifyrelay/internal/relay"
	"notifyrelay/internal/repository"
)

type App struct {
	cfg     *config.Config
	relay   *relay.Relay
	history *history.Service
	store   repository.KeyValueStore
	server  *http.Server
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewApp(cfg *config.Config, r *relay.Relay, hist *history.Service, store repository.KeyValueStore, router *gin.Engine, logger *zap.Logger) *App {
	return &App{
		cfg:     cfg,
		relay:   r,
		history: hist,
		store:   store,
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
		logger: logger,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.history.Run(ctx)
	}()

	if err := a.relay.StartListening(ctx); err != nil {
		a.logger.Error("start listening failed", zap.Error(err))
	}

	a.logger.Info("http server listening", zap.String("addr", a.cfg.HTTPAddr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("graceful shutdown started")
	shutdownErr := a.server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if err := a.store.Close(); err != nil {
			a.logger.Error("store close failed", zap.Error(err))
		}
		a.logger.Info("graceful shutdown completed")
		return shutdownErr
	case <-ctx.Done():
		if shutdownErr != nil {
			return shutdownErr
		}
		return ctx.Err()
	}
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}
