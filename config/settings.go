package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is read-only process configuration, loaded once at startup.
type Settings struct {
	Port string

	DefaultModel          string
	MaxTokens             int
	HistoryCap            int
	GoogleLocation        string
	AllowPartialProviders bool

	MongoURI        string
	MongoDB         string
	PostgresURI     string
	RedisAddr       string
	SessionCacheTTL time.Duration

	VoiceEnabled  bool
	VoiceWorkers  int
	VoiceLanguage string
}

func LoadSettings() (Settings, error) {
	s := Settings{
		Port:                  envOrDefault("PORT", "8080"),
		DefaultModel:          envOrDefault("TUTOR_DEFAULT_MODEL", "gpt-4o-mini"),
		MaxTokens:             envIntOrDefault("TUTOR_MAX_TOKENS", 1024),
		HistoryCap:            envIntOrDefault("TUTOR_HISTORY_CAP", 20),
		GoogleLocation:        envOrDefault("GOOGLE_CLOUD_LOCATION", "us-central1"),
		AllowPartialProviders: envBoolOrDefault("TUTOR_ALLOW_PARTIAL_PROVIDERS", false),

		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         envOrDefault("MONGO_DB", "sprachpartner"),
		PostgresURI:     os.Getenv("POSTGRES_URI"),
		RedisAddr:       firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
		SessionCacheTTL: envDurationOrDefault("SESSION_CACHE_TTL", 30*time.Minute),

		VoiceEnabled:  envBoolOrDefault("VOICE_ENABLED", false),
		VoiceWorkers:  envIntOrDefault("VOICE_WORKERS", 2),
		VoiceLanguage: envOrDefault("VOICE_LANGUAGE", "de-DE"),
	}

	if s.MaxTokens <= 0 {
		return Settings{}, fmt.Errorf("TUTOR_MAX_TOKENS must be > 0")
	}
	if s.HistoryCap <= 0 {
		return Settings{}, fmt.Errorf("TUTOR_HISTORY_CAP must be > 0")
	}
	if s.VoiceEnabled && s.RedisAddr == "" {
		return Settings{}, fmt.Errorf("VOICE_ENABLED requires REDIS_ADDR (or REDIS_URI/REDIS_URL)")
	}
	return s, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "1" || strings.EqualFold(v, "true")
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
