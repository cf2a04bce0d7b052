package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds everything the CLI and the bridge server need to reach Live
// and serve clients. Values come from the environment with localhost
// defaults; a .env file is honored through the godotenv autoload import in
// package main.
type Config struct {
	LiveHost     string        // LIVE_HOST, where AbletonOSC runs
	LivePort     int           // LIVE_PORT, AbletonOSC command port
	ListenPort   int           // LIVE_LISTEN_PORT, reply/event port
	QueryTimeout time.Duration // LIVE_TIMEOUT_MS, per-query wait
	ServerPort   int           // BATON_PORT, bridge HTTP port
	CORSOrigins  []string      // CORS_ORIGINS, comma separated
	LogLevel     string        // BATON_LOG_LEVEL: debug, info, warn, error
}

// FromEnv builds a Config from the environment, falling back to defaults for
// anything unset.
func FromEnv() Config {
	return Config{
		LiveHost:     envStr("LIVE_HOST", "127.0.0.1"),
		LivePort:     envInt("LIVE_PORT", 11000),
		ListenPort:   envInt("LIVE_LISTEN_PORT", 11001),
		QueryTimeout: time.Duration(envInt("LIVE_TIMEOUT_MS", 3000)) * time.Millisecond,
		ServerPort:   envInt("BATON_PORT", 8080),
		CORSOrigins:  splitOrigins(envStr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LogLevel:     envStr("BATON_LOG_LEVEL", "info"),
	}
}

// LiveAddr returns the host:port AbletonOSC listens on.
func (c Config) LiveAddr() string {
	return fmt.Sprintf("%s:%d", c.LiveHost, c.LivePort)
}

// Validate rejects configurations the transport or the server could not run
// with.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LiveHost, validation.Required),
		validation.Field(&c.LivePort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ListenPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.QueryTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.CORSOrigins, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
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

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
