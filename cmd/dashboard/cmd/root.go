package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"energy_dashboard/internal/config"
	"energy_dashboard/internal/logging"
)

var (
	// Global flags
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "dashboard",
		Short: "Energy metering dashboard",
		Long: `dashboard receives realtime metering values from an IoT platform widget,
maps them onto display slots and serves them to browsers over WebSocket
and a small HTTP API.`,
		SilenceUsage: true,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "dashboard.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration file; a missing file gives defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:   cfg.Level,
		Format:  cfg.Format,
		Output:  cfg.Output,
		Version: version,
	})
}
