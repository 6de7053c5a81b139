// Command planserver serves the simulation pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/wealthpath/planning-engine/internal/assumptions"
	"github.com/wealthpath/planning-engine/internal/config"
	"github.com/wealthpath/planning-engine/internal/engine"
	"github.com/wealthpath/planning-engine/internal/orchestrator"
	"github.com/wealthpath/planning-engine/internal/results"
	"github.com/wealthpath/planning-engine/internal/server"
	"github.com/wealthpath/planning-engine/internal/store"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	provider := assumptions.NewProvider(log)
	if cfg.AssumptionsFile != "" {
		if err := provider.LoadFile(cfg.AssumptionsFile); err != nil {
			log.Fatal().Err(err).Msg("Failed to load market assumptions")
		}
	}

	opts := []orchestrator.Option{orchestrator.WithBudget(cfg.SimulationBudget)}

	var archive server.ResultArchive
	if cfg.DatabasePath != "" {
		st, err := store.Open(cfg.DatabasePath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open result store")
		}
		defer st.Close()
		archive = st
		opts = append(opts, orchestrator.WithSink(st))
	}

	orch := orchestrator.New(provider, engine.New(log), results.NewCalculator(log), log, opts...)
	srv := server.New(provider, orch, archive, log)

	// Periodic assumption refresh. With a file-backed set the file is
	// re-read; the built-in set just gets re-stamped.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.RefreshSchedule, func() {
		if cfg.AssumptionsFile != "" {
			if err := provider.LoadFile(cfg.AssumptionsFile); err != nil {
				log.Error().Err(err).Msg("Scheduled assumption reload failed")
			}
			return
		}
		provider.Refresh()
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RefreshSchedule).Msg("Invalid refresh schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
