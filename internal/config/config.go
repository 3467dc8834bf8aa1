package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	str2duration "github.com/xhit/go-str2duration/v2"
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Retry     int
	Backoff   time.Duration
	RunISBN   string
	RunAuthor string
	RunTitle  string
	LogFormat string // text | json
}

// Load reads .env and .env.local (if present) without overriding variables
// already set in the environment, then builds the Config.
func Load(logger *slog.Logger) Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
	return New(logger)
}

func New(logger *slog.Logger) Config {
	var cfg Config

	cfg.BaseURL = getenv("BOOK_API_URL", "http://localhost:5000/api")
	cfg.Timeout = getDuration(logger, "HTTP_TIMEOUT", 10*time.Second)
	cfg.Retry = getInt(logger, "HTTP_RETRY", 2)
	cfg.Backoff = getDuration(logger, "HTTP_BACKOFF", 150*time.Millisecond)
	cfg.RunISBN = getenv("RUN_ISBN", "978-0-7432-7356-5")
	cfg.RunAuthor = getenv("RUN_AUTHOR", "F. Scott Fitzgerald")
	cfg.RunTitle = getenv("RUN_TITLE", "1984")
	cfg.LogFormat = getenv("LOG_FORMAT", "text")

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(logger *slog.Logger, k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("invalid integer, using default", "key", k, "value", v, "default", def)
		return def
	}
	return n
}

// getDuration accepts Go durations plus day/week units ("1d", "1w").
func getDuration(logger *slog.Logger, k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := str2duration.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration, using default", "key", k, "value", v, "default", def.String())
		return def
	}
	return d
}
