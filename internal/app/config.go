package app

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer      string // Optional: issuer claim for tokens (default: givestack)
	TokenSecret string // Required: HS256 signing secret, at least 32 bytes

	StripeAPIKey        string // Required: payment provider secret key
	StripeWebhookSecret string // Required: webhook signing secret
	ResendAPIKey        string // Optional: if empty, reset emails are logged instead of sent
	SenderEmail         string // Optional: From address for outgoing mail

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./givestack.db)
	PepperFile           string        // Optional: path to pepper file for password hashing (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	AccessTTL            time.Duration // Access token lifetime (default: 30m)
	OTPTTL               time.Duration // Password reset code lifetime (default: 15m)
	ProviderTimeout      time.Duration // Payment provider call timeout (default: 10s)

	AllowedOrigins []string // CORS origins, comma separated (default: *)
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment variables
// win over it.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Issuer:      getEnvOrDefault("ISSUER", "givestack"),
		TokenSecret: os.Getenv("TOKEN_SECRET"),

		StripeAPIKey:        os.Getenv("STRIPE_API_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		ResendAPIKey:        os.Getenv("RESEND_API_KEY"),
		SenderEmail:         getEnvOrDefault("SENDER_EMAIL", "no-reply@givestack.local"),

		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "givestack.db"),
		PepperFile:           getEnvOrDefault("PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		AccessTTL:            getEnvDurationOrDefault("ACCESS_TOKEN_TTL", 30*time.Minute),
		OTPTTL:               getEnvDurationOrDefault("OTP_TTL", 15*time.Minute),
		ProviderTimeout:      getEnvDurationOrDefault("PROVIDER_TIMEOUT", 10*time.Second),
	}

	origins := getEnvOrDefault("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}

// Validate reports configuration the service cannot start without.
func (c Config) Validate() error {
	if len(c.TokenSecret) < 32 {
		return errors.New("TOKEN_SECRET must be set and at least 32 bytes")
	}
	if c.StripeAPIKey == "" {
		return errors.New("STRIPE_API_KEY must be set")
	}
	if c.StripeWebhookSecret == "" {
		return errors.New("STRIPE_WEBHOOK_SECRET must be set")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
