package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/allenhichard/roletrando/cmd/roletrando/shared"
	"github.com/allenhichard/roletrando/internal/game"
	"github.com/allenhichard/roletrando/internal/ranking"
	"github.com/allenhichard/roletrando/internal/server"
)

// ServeCmd runs the game server.
type ServeCmd struct {
	Config string `kong:"default='roletrando.hcl',help='Path to the HCL config file'"`
	Addr   string `kong:"help='Listen address, overrides the config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed for the server (optional)'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := shared.SetupLogger(cfg.Server.LogLevel)

	words, err := game.LoadList(cfg.Words.File)
	if err != nil {
		return fmt.Errorf("loading word list: %w", err)
	}
	logger.Info("Loaded word list", "words", words.Len())

	storage, err := ranking.OpenSQLite(cfg.Ranking.Database)
	if err != nil {
		return fmt.Errorf("opening ranking database: %w", err)
	}
	store, err := ranking.Open(storage, quartz.NewReal(), logger)
	if err != nil {
		_ = storage.Close()
		return fmt.Errorf("loading ranking: %w", err)
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
	}

	srv := server.NewServer(words, store, logger, seed)

	ctx := shared.SetupSignalHandler(logger)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		shutdownErr := srv.Shutdown(shutdownCtx)
		if err := store.Close(); err != nil {
			logger.Error("Failed to flush ranking", "error", err)
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
		if err := storage.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
		return shutdownErr
	})

	return g.Wait()
}
