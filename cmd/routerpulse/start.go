package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/routerpulse/internal/aggregate"
	"github.com/user/routerpulse/internal/api"
	"github.com/user/routerpulse/internal/daemon"
	"github.com/user/routerpulse/internal/util"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the telemetry daemon and local dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.RouterURL == "" {
			return fmt.Errorf("router_url is not configured")
		}

		d, err := daemon.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to create daemon: %w", err)
		}

		if err := d.Start(); err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}

		// The device table owns its aggregator: its range follows the
		// request, independent of the fixed dashboard windows.
		srv := api.NewServer(cfg.APIPort,
			d.History(), d.Stream(), d.Inventory(),
			aggregate.NewAggregator(d.Backend()), d.Archive(),
			func() any { return d.GetStatus() })

		go func() {
			if err := srv.Start(); err != nil {
				util.Error("Dashboard API failed: %v", err)
				d.Stop()
			}
		}()

		d.Wait()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)

		return nil
	},
}
