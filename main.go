package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"centerout/internal"
	"centerout/internal/config"
	"centerout/internal/container"
	"centerout/internal/params"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	internal.DefaultLogger = internal.NewDefaultLogger()
	logger := internal.DefaultLogger.With("main")

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	p, err := params.Load(appConfig.Paths.ParamsFile)
	if err != nil {
		log.Fatalf("Failed to load task parameters: %v", err)
	}
	logger.Info("task parameters %s (subject %q, %d targets, schedule %d/%d/%d)",
		p.Fingerprint().Short(), p.Subject, p.Targets.Count,
		p.Schedule.Baseline, p.Schedule.Perturbation, p.Schedule.Washout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, p)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	db, err := appContainer.OpenLedger(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize ledger: %v", err)
	}
	if err := appContainer.InitWithDatabase(db); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	gin.SetMode(appConfig.Server.GinMode)
	srv := &http.Server{
		Addr:    ":" + appConfig.Server.Port,
		Handler: appContainer.API.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("control API listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if appContainer.Advancer != nil {
		g.Go(func() error { return appContainer.Advancer.Run(gctx) })
	}
	for _, src := range appContainer.Sources {
		src := src
		g.Go(func() error { return src.Run(gctx, appContainer.Task) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("shutting down: %v", err)
	}
}
