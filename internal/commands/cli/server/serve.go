// Package server provides server-related CLI commands.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrei-cloud/go_dukpt/internal/config"
	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/internal/hsm/logic"
	"github.com/andrei-cloud/go_dukpt/internal/metrics"
	"github.com/andrei-cloud/go_dukpt/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the DUKPT host server",
		Long: `Start the DUKPT host server to process key derivation, PIN translation,
data encryption and MAC commands over TCP.
SIGHUP purges the IPEK cache; SIGINT or SIGTERM stops the server.`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "Server host (overrides server.host)")
	cmd.Flags().Int("port", 0, "Server port (overrides server.port)")
	cmd.Flags().String("metrics-address", "", "Prometheus listen address (overrides metrics.address)")

	return cmd
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("metrics-address") {
		cfg.Metrics.Address, _ = cmd.Flags().GetString("metrics-address")
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := *config.Get()
	applyFlags(cmd, &cfg)

	m := metrics.New()
	hsmInstance, err := hsm.NewHSM(
		cfg.HSM.LMK,
		cfg.HSM.Firmware,
		hsm.WithCacheSize(cfg.Cache.Size),
		hsm.WithCacheObserver(m.ObserveCache),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize HSM instance: %w", err)
	}

	registry := logic.NewRegistry(hsmInstance)
	for _, c := range registry.Commands() {
		log.Debug().
			Str("command", c.Code).
			Str("response", c.Response).
			Str("description", c.Description).
			Msg("command registered")
	}

	srv, err := server.NewServer(cfg.Addr(), registry, m)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Metrics.Address != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Address); err != nil {
				log.Error().Err(err).Msg("metrics endpoint failed")
			}
		}()
	}

	purgeChan := make(chan os.Signal, 1)
	signal.Notify(purgeChan, syscall.SIGHUP)
	defer signal.Stop(purgeChan)
	go func() {
		for {
			select {
			case <-purgeChan:
				stats := hsmInstance.CacheStats()
				log.Info().
					Int("entries", stats.Entries).
					Uint64("hits", stats.Hits).
					Uint64("misses", stats.Misses).
					Msg("purging IPEK cache")
				hsmInstance.PurgeCache()
			case <-ctx.Done():
				return
			}
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	for {
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			errChan = nil
		case <-stopChan:
			log.Info().Msg("shutting down server...")
			if err := srv.Stop(); err != nil {
				log.Error().Err(err).Msg("error during server shutdown")
			}

			return nil
		case <-ctx.Done():
			if err := srv.Stop(); err != nil {
				log.Error().Err(err).Msg("error during server shutdown")
			}

			return nil
		}
	}
}
