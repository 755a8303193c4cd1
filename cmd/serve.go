package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtgibbs/carl/internal/config"
	"github.com/mtgibbs/carl/internal/server"
)

// sweepInterval paces the refusal-state eviction so the per-user map
// stays bounded however many distinct user IDs show up.
const (
	sweepInterval = 15 * time.Minute
	sweepHorizon  = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat assistant server",
	Long:  `Starts the HTTP server exposing the chat endpoint, a WebSocket variant, and liveness/status probes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		p, avail, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, p, avail)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := p.Tracker().Sweep(sweepHorizon); n > 0 {
						log.Printf("carl: swept %d stale refusal records", n)
					}
				}
			}
		}()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		case <-ctx.Done():
			log.Printf("carl: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
