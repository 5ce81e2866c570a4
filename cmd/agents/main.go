package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/BigOtis/Polylogue/clients/go/polylogue"
	"github.com/BigOtis/Polylogue/internal/agent"
	"github.com/BigOtis/Polylogue/internal/config"
	"github.com/BigOtis/Polylogue/internal/oracle"
	"github.com/BigOtis/Polylogue/internal/turn"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	// Load the participant roster
	participants, err := agent.LoadParticipants(cfg.ParticipantsFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.ParticipantsFile).Msg("failed to load participants")
	}
	if len(participants) < 2 {
		// Turn selection will fail every cycle with a single participant.
		// Stay up anyway so the misconfiguration is logged repeatedly rather
		// than silently swallowed by a crash loop.
		logger.Error().
			Int("participants", len(participants)).
			Msg("fewer than two participants configured; no speaker will ever be eligible")
	}

	client := polylogue.NewClient(cfg.ServerURL)
	llm := oracle.NewOllamaClient(cfg.OllamaURL)
	coordinator := turn.NewCoordinator(llm, cfg.JudgeModel, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("server", cfg.ServerURL).
		Str("judge_model", cfg.JudgeModel).
		Strs("rooms", cfg.Rooms).
		Int("participants", len(participants)).
		Msg("starting Polylogue agents")

	// One runner per room
	var wg sync.WaitGroup
	for _, room := range cfg.Rooms {
		runner := agent.NewRunner(agent.Config{
			Client:       client,
			Oracle:       llm,
			Coordinator:  coordinator,
			Participants: participants,
			Room:         room,
			HistoryLimit: cfg.HistoryLimit,
			CooldownMin:  cfg.CooldownMin,
			CooldownMax:  cfg.CooldownMax,
			Logger:       logger,
		})

		wg.Add(1)
		go func() {
			defer wg.Done()
			runner.Run(ctx)
		}()
	}

	wg.Wait()
	logger.Info().Msg("all runners stopped")
}
