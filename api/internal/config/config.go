package config

import (
	"errors"
	"io/fs"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// recognition endpoint used until the user saves another one
	PredictURL string
	Prompt     string
	Mode       string

	SettingsFile     string
	DatabaseURL      string
	HistoryLimit     int
	HistoryRetention time.Duration
	MaxSessions      int

	TelegramBotToken string
	WebhookURL       string

	// local recognition endpoint (cmd/predictor)
	PredictPort   string
	PredictEngine string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	MockLatex     string
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not a number, using %d", k, v, def)
		return def
	}
	return n
}

// resolveDSN prefers DATABASE_URL and otherwise builds a DSN from the
// POSTGRES_* / PG* variables. Without either, history is disabled and
// settings live in SETTINGS_FILE.
func resolveDSN() string {
	if v := getEnv("DATABASE_URL", ""); v != "" {
		return v
	}
	host := getEnv("PGHOST", "")
	if host == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("POSTGRES_USER", "latexsnap"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     net.JoinHostPort(host, getEnv("PGPORT", "5432")),
		Path:     "/" + getEnv("POSTGRES_DB", "latexsnap"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// loadDotEnv reads .env if present; real environment variables win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: .env: %v", err)
	}
}

func Load() *Config {
	loadDotEnv()
	return &Config{
		Port: getEnv("PORT", "8080"),

		PredictURL: getEnv("PREDICT_URL", "http://localhost:8000/predict"),
		Prompt:     os.Getenv("PROMPT"),
		Mode:       getEnv("RECOGNIZE_MODE", ""),

		SettingsFile:     getEnv("SETTINGS_FILE", "data/settings.json"),
		DatabaseURL:      resolveDSN(),
		HistoryLimit:     getEnvInt("HISTORY_LIMIT", 20),
		HistoryRetention: time.Duration(getEnvInt("HISTORY_RETENTION_DAYS", 30)) * 24 * time.Hour,
		MaxSessions:      getEnvInt("MAX_SESSIONS", 1000),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		PredictPort:   getEnv("PREDICT_PORT", "8000"),
		PredictEngine: getEnv("PREDICT_ENGINE", "mock"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		MockLatex:     getEnv("MOCK_LATEX", `\frac{x^2 + y^2}{z^2} = 1`),
	}
}

// RequireBot fails fast when the bot is started without a token.
func (c *Config) RequireBot() {
	c.TelegramBotToken = mustEnv("TELEGRAM_BOT_TOKEN")
}
