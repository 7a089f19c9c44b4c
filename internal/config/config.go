// Package config holds the process-wide configuration for the complaint
// reception service. Everything is read once at startup and passed to the
// component constructors explicitly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// DeliveryTimeout bounds a single send or edit call to one recipient so
	// an unresponsive chat cannot stall the rest of a fan-out pass.
	DeliveryTimeout = 5 * time.Second

	// AdminTokenTTL is the lifetime of a JWT issued to the admin panel.
	AdminTokenTTL = 72 * time.Hour
)

// Config is the explicit configuration struct for the service.
type Config struct {
	BotToken  string
	AdminID   int64 // Telegram chat ID of the administrator
	AuditChat int64 // channel/chat for audit records; 0 disables the sink

	PostgresDSN string
	RedisAddr   string
	RedisDB     int

	HTTPAddr  string
	JWTSecret string
	AdminKey  string // shared secret exchanged for a JWT on /auth
}

// Load reads the configuration from environment variables. BOT_TOKEN and
// ADMIN_ID are mandatory, everything else has a development default.
func Load() (*Config, error) {
	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}

	adminID, err := strconv.ParseInt(os.Getenv("ADMIN_ID"), 10, 64)
	if err != nil || adminID == 0 {
		return nil, fmt.Errorf("ADMIN_ID is not set or invalid")
	}

	auditChat, _ := strconv.ParseInt(os.Getenv("AUDIT_CHAT_ID"), 10, 64)
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	cfg := &Config{
		BotToken:    token,
		AdminID:     adminID,
		AuditChat:   auditChat,
		PostgresDSN: envOr("POSTGRES_DSN", "host=localhost user=user password=password dbname=complaintdesk port=5432 sslmode=disable"),
		RedisAddr:   envOr("REDIS_ADDR", "localhost:6379"),
		RedisDB:     redisDB,
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		JWTSecret:   envOr("JWT_SECRET", "dev-secret-change-me"),
		AdminKey:    os.Getenv("ADMIN_API_KEY"),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
