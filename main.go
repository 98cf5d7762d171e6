package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/partyserver/config"
	"github.com/wfunc/partyserver/logger"
	"github.com/wfunc/partyserver/server"
	"github.com/wfunc/partyserver/services"
	"github.com/wfunc/partyserver/store"
)

func main() {
	// Initialize logger
	logger.Init(false)
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Server.Debug {
		logger.Init(true)
	}

	// Open the question store and load the trivia catalog
	questionStore, err := store.Open(
		cfg.Database.Driver,
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to open question store: %v", err)
	}
	catalog := services.NewCatalogService(questionStore)
	defer catalog.Close()

	questions := catalog.Catalog(context.Background())
	logger.Log.Infof("Question catalog ready: %d questions (driver %s)", len(questions), cfg.Database.Driver)

	// Initialize Game Server
	gameServer, err := server.NewGameServer(cfg, questions)
	if err != nil {
		logger.Log.Fatalf("Failed to build game server: %v", err)
	}

	// Tear down on SIGINT/SIGTERM; Shutdown makes Start return.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		logger.Log.Info("Received shutdown signal")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		gameServer.Shutdown(ctx)
	}()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
	logger.Log.Info("Server stopped.")
}
