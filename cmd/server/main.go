package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamportal/internal/app"
	"teamportal/internal/config"
	"teamportal/internal/events"
	"teamportal/internal/service"
	"teamportal/internal/transport/rest"
	"teamportal/internal/transport/ws"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// @title Team Portal API
// @version 1.0
// @description Team login, reward wheel and problem statement selection
// @host localhost:5000
// @BasePath /api
func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	app.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close(context.Background())

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	defer wsHub.Stop()

	broadcasters := service.MultiBroadcaster{wsHub}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer nc.Drain()
		broadcasters = append(broadcasters, events.NewPublisher(nc, cfg.NATSSubjectPrefix))
		log.Info().Str("prefix", cfg.NATSSubjectPrefix).Msg("publishing events to NATS")
	}
	a.SetBroadcaster(broadcasters)

	router := rest.NewRouter(&rest.Container{
		AuthService:       a.Auth,
		SessionService:    a.Sessions,
		TeamService:       a.Teams,
		AllocationService: a.Allocations,
		WSHub:             wsHub,
		CORSOrigins:       cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreBackend).
			Int("problems", len(a.Catalog.Problems)).
			Msg("server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
