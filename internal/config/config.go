package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	FrontendURL string

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	StorageBucket      string

	MongoDBURI      string
	MongoDBPassword string
	MongoDBName     string

	Redis      RedisConfig
	Nats       NatsConfig
	Cloudinary CloudinaryConfig
	Booking    BookingConfig
	CORS       CORSConfig
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type NatsConfig struct {
	URL            string        `yaml:"url"`
	ConnectRetries int           `yaml:"connect_retries"`
	RetryWait      time.Duration `yaml:"retry_wait"`
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// BookingConfig holds the knobs for checkout and the booking clock.
type BookingConfig struct {
	Timezone     string        `yaml:"timezone"`
	CheckoutTTL  time.Duration `yaml:"checkout_ttl"`
	Currency     string        `yaml:"currency"`
	TourCacheTTL time.Duration `yaml:"tour_cache_ttl"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// fileOverlay is the optional YAML file pointed to by CONFIG_FILE. Environment
// variables still win over anything set here.
type fileOverlay struct {
	Redis   RedisConfig   `yaml:"redis"`
	Nats    NatsConfig    `yaml:"nats"`
	Booking BookingConfig `yaml:"booking"`
	CORS    CORSConfig    `yaml:"cors"`
}

func LoadConfig() (*Config, error) {
	overlay, err := loadOverlay(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               getEnvWithDefault("PORT", "8080"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:           getEnvWithDefault("LOG_LEVEL", "info"),
		FrontendURL:        strings.TrimRight(getEnvWithDefault("FRONTEND_URL", "http://localhost:3000"), "/"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_URL_ANON_KEY"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		StorageBucket:      getEnvWithDefault("SUPABASE_STORAGE_BUCKET", "verification-docs"),
		MongoDBURI:         os.Getenv("MONGODB_URI"),
		MongoDBPassword:    os.Getenv("MONGODB_PASSWORD"),
		MongoDBName:        getEnvWithDefault("MONGODB_DATABASE", "tourbay"),
		Redis: RedisConfig{
			Address:  getEnvWithDefault("REDIS_ADDRESS", orString(overlay.Redis.Address, "localhost:6379")),
			Password: getEnvWithDefault("REDIS_PASSWORD", overlay.Redis.Password),
			DB:       getIntEnv("REDIS_DB", overlay.Redis.DB),
			PoolSize: getIntEnv("REDIS_POOL_SIZE", orInt(overlay.Redis.PoolSize, 10)),
		},
		Nats: NatsConfig{
			URL:            getEnvWithDefault("NATS_URL", orString(overlay.Nats.URL, "nats://localhost:4222")),
			ConnectRetries: getIntEnv("NATS_CONNECT_RETRIES", orInt(overlay.Nats.ConnectRetries, 10)),
			RetryWait:      getDurationEnv("NATS_RETRY_WAIT", orDuration(overlay.Nats.RetryWait, 2*time.Second)),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Booking: BookingConfig{
			Timezone:     getEnvWithDefault("BOOKING_TIMEZONE", orString(overlay.Booking.Timezone, "UTC")),
			CheckoutTTL:  getDurationEnv("CHECKOUT_TTL", orDuration(overlay.Booking.CheckoutTTL, 30*time.Minute)),
			Currency:     getEnvWithDefault("CURRENCY", orString(overlay.Booking.Currency, "USD")),
			TourCacheTTL: getDurationEnv("TOUR_CACHE_TTL", orDuration(overlay.Booking.TourCacheTTL, time.Minute)),
		},
		CORS: CORSConfig{
			AllowOrigins: getListEnv("CORS_ALLOW_ORIGINS", orList(overlay.CORS.AllowOrigins, []string{"http://localhost:3000"})),
		},
	}

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if _, err := time.LoadLocation(cfg.Booking.Timezone); err != nil {
		return nil, fmt.Errorf("BOOKING_TIMEZONE is invalid: %w", err)
	}

	return cfg, nil
}

func loadOverlay(path string) (fileOverlay, error) {
	var overlay fileOverlay
	if path == "" {
		return overlay, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return overlay, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return overlay, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return overlay, nil
}

// Location returns the timezone booking dates and start times are expressed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func orDuration(v, def time.Duration) time.Duration {
	if v != 0 {
		return v
	}
	return def
}

func orList(v, def []string) []string {
	if len(v) > 0 {
		return v
	}
	return def
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
