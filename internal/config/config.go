package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	GitHubToken string
	Language    string
	Since       string // daily | weekly | monthly
	MaxRepos    int
	TopPicks    int

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	FeishuWebhookURL   string
	DingTalkWebhookURL string
	SlackWebhookURL    string
	TelegramBotToken   string
	TelegramChatID     string

	ReportsDir string
}

// ConfigError names the env var that failed validation.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
		Language:    os.Getenv("TRENDING_LANGUAGE"),
		Since:       os.Getenv("TRENDING_SINCE"),
		MaxRepos:    getInt("MAX_REPOS", 15),
		TopPicks:    getInt("TOP_PICK_COUNT", 3),

		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   os.Getenv("LLM_MODEL"),

		FeishuWebhookURL:   os.Getenv("FEISHU_WEBHOOK_URL"),
		DingTalkWebhookURL: os.Getenv("DINGTALK_WEBHOOK_URL"),
		SlackWebhookURL:    os.Getenv("SLACK_WEBHOOK_URL"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:     os.Getenv("TELEGRAM_CHAT_ID"),

		ReportsDir: os.Getenv("REPORTS_DIR"),
	}

	if cfg.Since == "" {
		cfg.Since = "daily"
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://api.openai.com/v1"
	}
	cfg.LLMBaseURL = strings.TrimSuffix(cfg.LLMBaseURL, "/")
	if cfg.LLMModel == "" {
		cfg.LLMModel = "gpt-4o-mini"
	}
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = "reports"
	}

	cfg.MaxRepos = clamp(cfg.MaxRepos, 1, 25)
	cfg.TopPicks = clamp(cfg.TopPicks, 1, 5)

	return cfg
}

// Validate checks the settings that cannot be defaulted. It is called
// once at startup; any error here is fatal for the run.
func (c *Config) Validate() error {
	switch c.Since {
	case "daily", "weekly", "monthly":
	default:
		return &ConfigError{Field: "TRENDING_SINCE", Message: fmt.Sprintf("must be daily, weekly, or monthly (got %q)", c.Since)}
	}
	if c.LLMAPIKey == "" {
		return &ConfigError{Field: "LLM_API_KEY", Message: "LLM API key is required"}
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == "" {
		return &ConfigError{Field: "TELEGRAM_CHAT_ID", Message: "required when TELEGRAM_BOT_TOKEN is set"}
	}
	return nil
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
