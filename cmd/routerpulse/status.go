package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 3 * time.Second}
		url := fmt.Sprintf("http://127.0.0.1:%d/api/status", cfg.APIPort)

		resp, err := client.Get(url)
		if err != nil {
			fmt.Println("Daemon is not running")
			return nil
		}
		defer resp.Body.Close()

		var payload struct {
			Stream string `json:"stream"`
			Daemon struct {
				Running    bool   `json:"running"`
				PID        int    `json:"pid"`
				Uptime     string `json:"uptime"`
				DeviceKeys int    `json:"device_keys"`
				Jobs       []struct {
					Name       string `json:"name"`
					LastError  string `json:"last_error"`
					ErrorCount int    `json:"error_count"`
				} `json:"jobs"`
			} `json:"daemon"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("failed to decode status: %w", err)
		}

		fmt.Printf("Daemon:   running (PID %d, up %s)\n", payload.Daemon.PID, payload.Daemon.Uptime)
		fmt.Printf("Stream:   %s\n", payload.Stream)
		fmt.Printf("Devices:  %d\n", payload.Daemon.DeviceKeys)
		for _, job := range payload.Daemon.Jobs {
			state := "ok"
			if job.LastError != "" {
				state = fmt.Sprintf("error: %s (x%d)", job.LastError, job.ErrorCount)
			}
			fmt.Printf("Job %-20s %s\n", job.Name, state)
		}
		return nil
	},
}
