// Package config builds the process-wide configuration from environment
// variables so main stays lean. Values are read once at startup and never
// mutated afterwards.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures every knob the service reads from the environment.
type Config struct {
	Addr string

	DatabaseURL string
	RedisURL    string

	WhatsApp WhatsAppConfig

	BrasilAPIBaseURL     string
	TransparenciaBaseURL string
	TransparenciaToken   string
	BreachAPIBaseURL     string
	BreachAPIKey         string

	RateLimit RateLimitConfig

	AdminUsername string
	AdminPassword string

	LogLevel string
}

// WhatsAppConfig holds WhatsApp Cloud API credentials and webhook secrets.
type WhatsAppConfig struct {
	PhoneNumberID      string
	APIToken           string
	WebhookVerifyToken string
	GraphBaseURL       string
}

// RateLimitConfig bounds per-user request volume.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// FromEnv loads a Config from the environment. A .env file in the working
// directory is honored when present; a missing file is not an error.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        getEnv("ADDR", ":8000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		WhatsApp: WhatsAppConfig{
			PhoneNumberID:      os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			APIToken:           os.Getenv("WHATSAPP_API_TOKEN"),
			WebhookVerifyToken: getEnv("WHATSAPP_WEBHOOK_VERIFY_TOKEN", "br_data_bot_webhook"),
			GraphBaseURL:       getEnv("WHATSAPP_GRAPH_BASE_URL", "https://graph.facebook.com/v18.0"),
		},
		BrasilAPIBaseURL:     getEnv("BRASIL_API_BASE_URL", "https://brasilapi.com.br/api"),
		TransparenciaBaseURL: getEnv("PORTAL_TRANSPARENCIA_BASE_URL", "https://api.portaldatransparencia.gov.br"),
		TransparenciaToken:   os.Getenv("PORTAL_TRANSPARENCIA_TOKEN"),
		BreachAPIBaseURL:     getEnv("BREACH_API_BASE_URL", "https://haveibeenpwned.com/api/v3"),
		BreachAPIKey:         os.Getenv("BREACH_API_KEY"),
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
			Window:   time.Duration(getEnvInt("RATE_LIMIT_PERIOD", 60)) * time.Second,
		},
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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
