//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"notifyrelay/internal/app"
	"notifyrelay/internal/config"
	"notifyrelay/internal/history"
	"notifyrelay/internal/http"
	"notifyrelay/internal/http/controller"
	"notifyrelay/internal/listener"
	"notifyrelay/internal/logging"
	"notifyrelay/internal/metrics"
	"notifyrelay/internal/queue/rabbitmq"
	"notifyrelay/internal/relay"
	"notifyrelay/internal/store"
	"notifyrelay/internal/stream"
)

func InitializeApp() (*app.App, error) {
	wire.Build(
		config.New,
		logging.New,
		store.NewStore,
		stream.NewHub,
		metrics.New,
		history.NewService,
		listener.NewPush,
		listener.NewNative,
		listener.NewResolver,
		relay.New,
		rabbitmq.NewPublisher,
		controller.NewHandler,
		http.NewRouter,
		app.NewApp,
	)
	return &app.App{}, nil
}
