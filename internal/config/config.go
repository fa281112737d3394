// Package config loads process configuration from a JSON file with
// environment-variable overrides. Defaults are written to the file on
// first run so a fresh install has something to edit.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	BaseURL       string `json:"base_url"`
	BasePath      string `json:"base_path"`
	AppEnv        string `json:"app_env"`
	LogLevel      string `json:"log_level"`
	MaxConcurrent int    `json:"max_concurrent"`
	Gemini        struct {
		APIKey string `json:"api_key"`
		Model  string `json:"model"`
	} `json:"gemini"`
	Telex struct {
		APIKey string `json:"api_key"`
	} `json:"telex"`
	TTS struct {
		MaxInputTokens int `json:"max_input_tokens"`
	} `json:"tts"`
	Alerts struct {
		TelegramToken  string `json:"telegram_token"`
		TelegramChatID int64  `json:"telegram_chat_id"`
	} `json:"alerts"`
	Streams struct {
		// Janitor sweep schedule (cron) and the idle TTL after which a
		// never-consumed stream is dropped.
		SweepSchedule string `json:"sweep_schedule"`
		IdleTTLSecs   int    `json:"idle_ttl_secs"`
	} `json:"streams"`
}

// Load reads the config file at path, writing defaults first when the file
// does not exist, then applies environment overrides (highest precedence).
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Host = "127.0.0.1"
	cfg.Port = 5700
	cfg.BaseURL = "http://localhost:5700"
	cfg.AppEnv = "local"
	cfg.LogLevel = "info"
	cfg.MaxConcurrent = 4
	cfg.Gemini.Model = "gemini-2.5-flash-preview-tts"
	cfg.TTS.MaxInputTokens = 4096
	cfg.Streams.SweepSchedule = "*/5 * * * *"
	cfg.Streams.IdleTTLSecs = 1800

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if host := os.Getenv("HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Port = n
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if basePath := os.Getenv("BASE_PATH"); basePath != "" {
		cfg.BasePath = basePath
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.AppEnv = env
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if max := os.Getenv("MAX_CONCURRENT"); max != "" {
		n, err := strconv.Atoi(max)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_CONCURRENT: %w", err)
		}
		cfg.MaxConcurrent = n
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.Gemini.Model = model
	}
	if key := os.Getenv("TELEX_API_KEY"); key != "" {
		cfg.Telex.APIKey = key
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Alerts.TelegramToken = token
	}
	if chat := os.Getenv("TELEGRAM_CHAT_ID"); chat != "" {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Alerts.TelegramChatID = id
	}
	if tokens := os.Getenv("TTS_MAX_INPUT_TOKENS"); tokens != "" {
		n, err := strconv.Atoi(tokens)
		if err != nil {
			return nil, fmt.Errorf("invalid TTS_MAX_INPUT_TOKENS: %w", err)
		}
		cfg.TTS.MaxInputTokens = n
	}

	return cfg, nil
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}
