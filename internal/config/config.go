// Package config reads process environment, optionally through a .env file.
// It is the only package that touches os.Getenv; everything else receives
// the resulting values.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rxtech-lab/stock-sentinel/internal/advisor"
	"github.com/rxtech-lab/stock-sentinel/internal/notifier"
)

// Env holds environment-driven settings.
type Env struct {
	// Advisory
	OpenRouterAPIKey string
	OpenRouterModel  string
	AILanguage       advisor.Language

	// Discord
	DiscordWebhook string
	DiscordUserID  string

	// Market data
	PolygonAPIKey string
	DataPath      string

	// Scan and backtest
	Watchlist      []string
	Benchmarks     []string
	InitialCapital float64
}

// LoadEnv reads environment variables into Env. Files are loaded in order
// with godotenv, which never overrides variables that are already set. A
// missing file is not an error.
func LoadEnv(files ...string) Env {
	if len(files) == 0 {
		_ = godotenv.Load()
	}

	for _, f := range files {
		_ = godotenv.Load(f)
	}

	return Env{
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", advisor.DefaultModel),
		AILanguage:       advisor.ParseLanguage(strings.ToLower(getEnv("AI_LANGUAGE", "en"))),
		DiscordWebhook:   getEnv("DISCORD_WEBHOOK", ""),
		DiscordUserID:    getEnv("DISCORD_USER_ID", ""),
		PolygonAPIKey:    getEnv("POLYGON_API_KEY", ""),
		DataPath:         getEnv("DATA_PATH", "./data"),
		Watchlist:        SplitAndTrim(getEnv("WATCHLIST", "ALAB")),
		Benchmarks:       SplitAndTrim(getEnv("BENCHMARKS", "QQQ")),
		InitialCapital:   getEnvFloat("INITIAL_CAPITAL", 10000),
	}
}

// AdvisorConfig returns the advisor settings, or false when no API key is
// configured.
func (e Env) AdvisorConfig() (advisor.Config, bool) {
	if e.OpenRouterAPIKey == "" {
		return advisor.Config{}, false
	}

	config := advisor.DefaultConfig(e.OpenRouterAPIKey)
	config.Model = e.OpenRouterModel
	config.Language = e.AILanguage

	return config, true
}

// DiscordConfig returns the webhook settings, or false when no webhook is
// configured.
func (e Env) DiscordConfig() (notifier.DiscordConfig, bool) {
	if e.DiscordWebhook == "" {
		return notifier.DiscordConfig{}, false
	}

	return notifier.DiscordConfig{
		WebhookURL: e.DiscordWebhook,
		UserID:     e.DiscordUserID,
	}, true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// SplitAndTrim splits a comma separated symbol list, dropping empty entries
// and upper-casing the rest.
func SplitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, strings.ToUpper(t))
		}
	}

	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}

	return def
}
