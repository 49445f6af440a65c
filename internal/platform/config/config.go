package config

import (
	"os"
	"strconv"
	"time"
)

// Config concentra todo lo configurable por env.
// El .env se carga en main (godotenv); acá solo se lee os.Getenv.
type Config struct {
	Port    string
	AppName string

	// DSN de Postgres. Vacío => repos in-memory (dev/tests).
	DBDSN string

	LogLevel  string
	LogFormat string

	// Cuenta admin sembrada al arranque.
	AdminEmail    string
	AdminPassword string

	SessionTTL    time.Duration
	RememberTTL   time.Duration
	ResetTokenTTL time.Duration
}

func FromEnv() Config {
	return Config{
		Port:          getenv("PORT", "8080"),
		AppName:       getenv("APP_NAME", "vet-clinic"),
		DBDSN:         os.Getenv("DB_DSN"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		LogFormat:     os.Getenv("LOG_FORMAT"),
		AdminEmail:    getenv("ADMIN_EMAIL", "admin@vetclinic.com"),
		AdminPassword: getenv("ADMIN_PASSWORD", "Admin123!"),
		SessionTTL:    getDuration("SESSION_TTL_HOURS", 24*time.Hour),
		RememberTTL:   getDuration("REMEMBER_TTL_HOURS", 30*24*time.Hour),
		ResetTokenTTL: getDuration("RESET_TOKEN_TTL_HOURS", 2*time.Hour),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	h, err := strconv.Atoi(v)
	if err != nil || h <= 0 {
		return def
	}
	return time.Duration(h) * time.Hour
}
