package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/telex-integrations/agentrelay/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "agentrelay",
	Short: "Host A2A agents behind a capability-aware gateway",
	Long: `agentrelay serves a set of agents over the A2A protocol (message/send,
message/stream, tasks/get) and fronts them with a generic submission
gateway that picks push, streaming, or blocking delivery from each
agent's declared capabilities.`,
}

func init() {
	defaultPath := filepath.Join(os.Getenv("HOME"), ".agentrelay", "config.json")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultPath, "config file path")
}

// loadConfig loads configuration or exits; subcommands expect a usable
// config before doing anything.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
