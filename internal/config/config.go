/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the donation-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort          string `mapstructure:"SERVER_PORT"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	DonationEventQueue  string `mapstructure:"DONATION_EVENT_QUEUE"`
	StripeAPIBaseURL    string `mapstructure:"STRIPE_API_BASE_URL"`
	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	FrontendURL         string `mapstructure:"FRONTEND_URL"`
	TokenSigningKey     string `mapstructure:"TOKEN_SIGNING_KEY"`

	TicketPriceCents        int64 `mapstructure:"TICKET_PRICE_CENTS"`
	MaxDonationAmountCents  int64 `mapstructure:"MAX_DONATION_AMOUNT_CENTS"`
	FreeMatchLimit          int   `mapstructure:"FREE_MATCH_LIMIT"`
	FreeRandomizeLimit      int   `mapstructure:"FREE_RANDOMIZE_LIMIT"`
	DonationRateLimitPerMin int   `mapstructure:"DONATION_RATE_LIMIT_PER_MINUTE"`

	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`

	PendingExpiryHours int    `mapstructure:"PENDING_DONATION_EXPIRY_HOURS"`
	ExpiryJobSchedule  string `mapstructure:"EXPIRY_JOB_SCHEDULE"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	FromEmail    string `mapstructure:"FROM_EMAIL"`
	OwnerEmail   string `mapstructure:"CAMPAIGN_OWNER_EMAIL"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8003")
	viper.SetDefault("DONATION_EVENT_QUEUE", "donation_service.donation_events")
	viper.SetDefault("STRIPE_API_BASE_URL", "https://api.stripe.com")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("TICKET_PRICE_CENTS", 5000) // $50 per ticket
	viper.SetDefault("MAX_DONATION_AMOUNT_CENTS", 2500000)
	viper.SetDefault("FREE_MATCH_LIMIT", 3)
	viper.SetDefault("FREE_RANDOMIZE_LIMIT", 3)
	viper.SetDefault("DONATION_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "donation:rate_limit")
	viper.SetDefault("PENDING_DONATION_EXPIRY_HOURS", 24)
	viper.SetDefault("EXPIRY_JOB_SCHEDULE", "*/15 * * * *")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("FROM_EMAIL", "noreply@localhost")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("DONATION_EVENT_QUEUE")
	_ = viper.BindEnv("STRIPE_API_BASE_URL")
	_ = viper.BindEnv("STRIPE_SECRET_KEY")
	_ = viper.BindEnv("STRIPE_WEBHOOK_SECRET")
	_ = viper.BindEnv("FRONTEND_URL")
	_ = viper.BindEnv("TOKEN_SIGNING_KEY")
	_ = viper.BindEnv("TICKET_PRICE_CENTS")
	_ = viper.BindEnv("MAX_DONATION_AMOUNT_CENTS")
	_ = viper.BindEnv("FREE_MATCH_LIMIT")
	_ = viper.BindEnv("FREE_RANDOMIZE_LIMIT")
	_ = viper.BindEnv("DONATION_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("PENDING_DONATION_EXPIRY_HOURS")
	_ = viper.BindEnv("EXPIRY_JOB_SCHEDULE")
	_ = viper.BindEnv("SMTP_HOST")
	_ = viper.BindEnv("SMTP_PORT")
	_ = viper.BindEnv("SMTP_USERNAME")
	_ = viper.BindEnv("SMTP_PASSWORD")
	_ = viper.BindEnv("FROM_EMAIL")
	_ = viper.BindEnv("CAMPAIGN_OWNER_EMAIL")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return
}
