package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/telex-integrations/agentrelay/internal/agent"
	"github.com/telex-integrations/agentrelay/internal/agent/docmd"
	"github.com/telex-integrations/agentrelay/internal/agent/tts"
	"github.com/telex-integrations/agentrelay/internal/gateway"
	"github.com/telex-integrations/agentrelay/internal/notify"
	"github.com/telex-integrations/agentrelay/internal/server"
	"github.com/telex-integrations/agentrelay/internal/task"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the agent host",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func writePIDFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	pidPath := filepath.Join(dir, "agentrelay.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	pidPath, err := writePIDFile(filepath.Dir(cfgPath))
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	// Shared infrastructure
	store := task.NewStore()
	queue := agent.NewQueue(int64(cfg.MaxConcurrent))
	notifier := notify.NewNotifier()

	var alerter *notify.TelegramAlerter
	if cfg.Alerts.TelegramToken != "" && cfg.Alerts.TelegramChatID != 0 {
		alerter, err = notify.NewTelegramAlerter(cfg.Alerts.TelegramToken, cfg.Alerts.TelegramChatID)
		if err != nil {
			return fmt.Errorf("create telegram alerter: %w", err)
		}
		slog.Info("telegram alerts enabled")
	} else {
		slog.Warn("telegram alerts disabled (no token or chat id)")
	}

	// TTS components
	budget, err := tts.NewBudget(cfg.TTS.MaxInputTokens)
	if err != nil {
		return fmt.Errorf("create token budget: %w", err)
	}
	synth := tts.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	if cfg.Gemini.APIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, speech synthesis will fail")
	}

	// Hosted agents
	pipelines := map[string]*agent.Pipeline{
		docmd.AgentID: agent.NewPipeline(docmd.PipelineConfig(), store, queue, notifier, alerter),
		tts.AgentID:   agent.NewPipeline(tts.PipelineConfig(synth, budget), store, queue, notifier, alerter),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.Start(ctx)
	defer queue.Stop()

	// HTTP surface: agent endpoints plus the gateway on one mux
	srv := server.New(cfg.BaseURL, cfg.AppEnv, cfg.Telex.APIKey, store, pipelines)
	streams := gateway.NewRegistry()
	gw := gateway.New(cfg.BaseURL, streams, gateway.NewClient())
	gw.Register(srv.Mux())

	janitor, err := gateway.NewJanitor(streams, cfg.Streams.SweepSchedule,
		time.Duration(cfg.Streams.IdleTTLSecs)*time.Second)
	if err != nil {
		return err
	}
	janitor.Start()
	defer janitor.Stop()

	var handler http.Handler = srv
	if cfg.BasePath != "" {
		prefix := "/" + strings.Trim(cfg.BasePath, "/")
		handler = http.StripPrefix(prefix, srv)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: handler,
	}
	go func() {
		slog.Info("agentrelay started",
			"listen", httpServer.Addr,
			"base_url", cfg.BaseURL,
			"app_env", cfg.AppEnv,
			"max_concurrent", cfg.MaxConcurrent,
			"agents", len(pipelines),
			"pid_file", pidPath,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(filepath.Dir(cfgPath)); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}

		slog.Info("shutting down", "signal", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
		return nil
	}
}
