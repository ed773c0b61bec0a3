// Command targetd serves the target hint for the next outward trial.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"centerout/adapters/targetctl"
	"centerout/internal"
	"centerout/internal/config"
	"centerout/internal/params"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	p, err := params.Load(cfg.Paths.ParamsFile)
	if err != nil {
		log.Fatalf("Failed to load task parameters: %v", err)
	}
	seq, err := targetctl.LoadSequence(cfg.Targets.SequenceFile)
	if err != nil {
		log.Fatalf("Failed to read targets file: %v", err)
	}
	hub, err := targetctl.NewHub(p.Targets.Count, seq)
	if err != nil {
		log.Fatalf("Failed to build target hub: %v", err)
	}

	logger := internal.DefaultLogger.With("targetd")
	srv := &http.Server{
		Addr:    ":" + cfg.Targets.Port,
		Handler: targetctl.NewServer(hub),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed: %v", err)
		}
	}()

	logger.Info("serving %d targets on %s (sequence of %d)", p.Targets.Count, srv.Addr, len(seq))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	logger.Info("target counts at exit: %v", hub.Counts())
}
