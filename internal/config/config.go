// Package config loads settings for the collaborator server from the
// environment and for the CLI client from viper.
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"focusflow/internal/db"
)

type Config struct {
	Port        string
	DBPath      string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
	// MigrationsDir overrides the embedded schema when set.
	MigrationsDir string
	LogLevel      string
}

func Load() Config {
	return Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "./data/focusflow.db"),
		JWTSecret:     getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir: getEnv("MIGRATIONS_DIR", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// Migrations returns the schema to apply on startup.
func (c Config) Migrations() fs.FS {
	if c.MigrationsDir != "" {
		return os.DirFS(c.MigrationsDir)
	}
	return db.ServerMigrations()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
