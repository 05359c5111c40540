package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	SecureCookies     bool   `mapstructure:"SECURE_COOKIES"`

	AllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Logistics backend the portal forwards to.
	BackendURL            string  `mapstructure:"BACKEND_URL"`
	BackendTimeoutSeconds int     `mapstructure:"BACKEND_TIMEOUT_SECONDS"`
	BackendRPS            float64 `mapstructure:"BACKEND_RPS"`

	// Session storage: "memory" or "redis".
	SessionStore    string `mapstructure:"SESSION_STORE"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`

	// Mongo holds dashboard snapshots; empty keeps them in memory.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	DashboardRefreshSeconds int `mapstructure:"DASHBOARD_REFRESH_SECONDS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("SECURE_COOKIES", false)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	viper.SetDefault("BACKEND_URL", "http://localhost:5000/api")
	viper.SetDefault("BACKEND_TIMEOUT_SECONDS", 15)
	viper.SetDefault("BACKEND_RPS", 20)
	viper.SetDefault("SESSION_STORE", "redis")
	viper.SetDefault("SESSION_TTL_HOURS", 24*7)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 1)
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DATABASE_NAME", "loadly")
	viper.SetDefault("DASHBOARD_REFRESH_SECONDS", 30)

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

// BackendTimeout is the per-request timeout for calls to the logistics backend.
func BackendTimeout() time.Duration {
	if AppConfig.BackendTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(AppConfig.BackendTimeoutSeconds) * time.Second
}

// SessionTTL bounds how long an idle browser session keeps its tokens.
func SessionTTL() time.Duration {
	if AppConfig.SessionTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(AppConfig.SessionTTLHours) * time.Hour
}

// DashboardRefreshInterval is the admin dashboard polling cadence.
func DashboardRefreshInterval() time.Duration {
	if AppConfig.DashboardRefreshSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(AppConfig.DashboardRefreshSeconds) * time.Second
}
