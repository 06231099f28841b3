package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the callboard service.
type Config struct {
	HTTPPort   int
	SQLiteDSN  string
	SessionTTL time.Duration
}

// Load parses configuration values from the current process environment.
//
// A .env file is merged in first when present, keeping real environment
// variables authoritative. The loader applies sensible defaults for optional
// fields and reports every invalid entry at once.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("CALLBOARD_ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("impossible de charger le fichier d'environnement %s: %w", envFile, err)
		}
	}

	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:callboard.db?_foreign_keys=on",
		SessionTTL: 7 * 24 * time.Hour,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("CALLBOARD_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CALLBOARD_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("CALLBOARD_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("CALLBOARD_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "CALLBOARD_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valeurs d'environnement invalides: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
