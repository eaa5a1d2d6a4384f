package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/routerpulse/internal/util"
)

var (
	cfgFile string
	cfg     *util.Config
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "routerpulse",
	Short: "Router telemetry dashboard core",
	Long: `RouterPulse consumes a router's live metrics stream and historical
query API and maintains the aggregated views a dashboard needs:
- rolling per-interface history for live sparklines
- per-device bandwidth totals over selectable time windows
- a sortable, filterable device table

It runs as a background daemon and serves the views over a local JSON API.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.routerpulse/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("router-url", "",
		"router base URL (e.g. http://192.168.1.1)")
	rootCmd.PersistentFlags().String("token", "",
		"API token for the router")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("router_url", rootCmd.PersistentFlags().Lookup("router-url"))
	viper.BindPFlag("api_token", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	cfg, err = util.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	util.InitLogger(cfg.LogLevel, cfg.LogFile)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("routerpulse version 1.0.0")
	},
}
