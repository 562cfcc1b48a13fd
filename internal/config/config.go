package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	Group     *GroupConfig     `mapstructure:"group"`
	RateLimit *RateLimitConfig `mapstructure:"rate_limit"`
	Stripe    *StripeConfig    `mapstructure:"stripe"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	BaseURL            string   `mapstructure:"base_url"`
	Port               string   `mapstructure:"port"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
}

type GroupConfig struct {
	// How long a join waits for the per-offering lock before failing Busy.
	LockWaitMs int `mapstructure:"lock_wait_ms"`
}

type RateLimitConfig struct {
	FeedLimit    int `mapstructure:"feed_limit"`
	FeedWindowMs int `mapstructure:"feed_window_ms"`
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("viper.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal -> %w", err)
	}

	// Secrets come from the environment when present.
	if key := os.Getenv("JWT_SIGNING_KEY"); key != "" {
		conf.API.JWTSigningKey = key
	}
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		conf.Stripe.SecretKey = key
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return conf, nil
}
