package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Mongo configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisLockDB   int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Payment rails.
	StripeKey          string `mapstructure:"STRIPE_KEY"`
	PayPalClientID     string `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalSecret       string `mapstructure:"PAYPAL_SECRET"`
	PayPalAPIBase      string `mapstructure:"PAYPAL_API_BASE"`
	CryptoChargeAPIKey string `mapstructure:"CRYPTO_CHARGE_API_KEY"`
	CryptoChargeAPIURL string `mapstructure:"CRYPTO_CHARGE_API_URL"`

	// Booking policy knobs.
	SlotGranularityMinutes     int     `mapstructure:"SLOT_GRANULARITY_MINUTES"`
	CancellationWindowHours    int     `mapstructure:"CANCELLATION_WINDOW_HOURS"`
	DepositForfeitureSplit     float64 `mapstructure:"DEPOSIT_FORFEITURE_SPLIT"`
	PaymentIntentTTLMinutes    int     `mapstructure:"PAYMENT_INTENT_TTL_MINUTES"`
	WaitlistDeadlineMinutes    int     `mapstructure:"WAITLIST_DEADLINE_MINUTES"`
	SpecialistCommissionRate   float64 `mapstructure:"SPECIALIST_COMMISSION_RATE"`
	BookingWindowDays          int     `mapstructure:"BOOKING_WINDOW_DAYS"`
	PaymentSweepIntervalMins   int     `mapstructure:"PAYMENT_SWEEP_INTERVAL_MINS"`
	WaitlistSweepIntervalMins  int     `mapstructure:"WAITLIST_SWEEP_INTERVAL_MINS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "appointly")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_LOCK_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("PAYPAL_API_BASE", "https://api-m.sandbox.paypal.com")
	viper.SetDefault("CRYPTO_CHARGE_API_URL", "https://api.commerce.coinbase.com")
	viper.SetDefault("SLOT_GRANULARITY_MINUTES", 15)
	viper.SetDefault("CANCELLATION_WINDOW_HOURS", 24)
	viper.SetDefault("DEPOSIT_FORFEITURE_SPLIT", 0.5)
	viper.SetDefault("PAYMENT_INTENT_TTL_MINUTES", 30)
	viper.SetDefault("WAITLIST_DEADLINE_MINUTES", 120)
	viper.SetDefault("SPECIALIST_COMMISSION_RATE", 0.15)
	viper.SetDefault("BOOKING_WINDOW_DAYS", 7)
	viper.SetDefault("PAYMENT_SWEEP_INTERVAL_MINS", 1)
	viper.SetDefault("WAITLIST_SWEEP_INTERVAL_MINS", 5)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
