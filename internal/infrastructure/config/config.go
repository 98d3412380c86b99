package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Plan      PlanConfig      `mapstructure:"plan"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	LogLevel  string          `mapstructure:"log_level"`
}

// AppConfig describes the application itself.
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig is the HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// MongoConfig is the document store configuration.
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// CacheConfig is the Redis read-through cache configuration. The cache
// is opportunistic: when disabled or unreachable, reads go straight to
// the store.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// VisionConfig configures the external ingredient-recognition API.
type VisionConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxNames  int           `mapstructure:"max_names"`
	MaxImageB int64         `mapstructure:"max_image_bytes"`
}

// PaymentConfig configures the external payment gateway.
type PaymentConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	ClientID    string        `mapstructure:"client_id"`
	APIKey      string        `mapstructure:"api_key"`
	ChecksumKey string        `mapstructure:"checksum_key"`
	ReturnBase  string        `mapstructure:"return_base"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// PlanConfig holds tunables for the BMI planner.
type PlanConfig struct {
	// DefaultAge is a safety default used when the profile has no
	// plausible birth date. It is not a computed value.
	DefaultAge   int `mapstructure:"default_age"`
	CalorieFloor int `mapstructure:"calorie_floor"`
	MealsPerSlot int `mapstructure:"meals_per_slot"`
}

// RateLimitConfig configures request rate limiting.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig loads configuration from .env and the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("mongo.uri", "MONGODB_URI")
	viper.BindEnv("mongo.database", "MONGODB_DATABASE")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.addr", "REDIS_ADDR")
	viper.BindEnv("cache.password", "REDIS_PASSWORD")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("vision.base_url", "VISION_BASE_URL")
	viper.BindEnv("vision.api_key", "VISION_API_KEY")
	viper.BindEnv("vision.model", "VISION_MODEL")
	viper.BindEnv("payment.base_url", "PAYMENT_BASE_URL")
	viper.BindEnv("payment.client_id", "PAYMENT_CLIENT_ID")
	viper.BindEnv("payment.api_key", "PAYMENT_API_KEY")
	viper.BindEnv("payment.checksum_key", "PAYMENT_CHECKSUM_KEY")
	viper.BindEnv("payment.return_base", "BACKEND_BASE_URL")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskSecret shows only the first and last 4 characters of a secret.
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "meal-planner-api")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "mealplanner")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttl", "2m")

	viper.SetDefault("auth.token_ttl", "24h")

	viper.SetDefault("vision.model", "gemini-1.5-flash")
	viper.SetDefault("vision.timeout", "60s")
	viper.SetDefault("vision.max_names", 15)
	viper.SetDefault("vision.max_image_bytes", 10*1024*1024) // 10MB

	viper.SetDefault("payment.timeout", "15s")

	viper.SetDefault("plan.default_age", 25)
	viper.SetDefault("plan.calorie_floor", 1200)
	viper.SetDefault("plan.meals_per_slot", 10)

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	viper.SetDefault("log_level", "info")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}
	if config.Mongo.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if config.Cache.Enabled && config.Cache.TTL <= 0 {
		return fmt.Errorf("invalid cache ttl")
	}
	if config.Plan.DefaultAge < 13 || config.Plan.DefaultAge > 120 {
		return fmt.Errorf("plan default age out of range")
	}
	if config.Plan.CalorieFloor <= 0 {
		return fmt.Errorf("invalid calorie floor")
	}
	return nil
}
