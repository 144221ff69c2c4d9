package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment.
// Optional backends (Postgres, Redis, Kafka) stay disabled while their
// address is empty.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	SupabaseURL       string `env:"SUPABASE_URL"`
	SupabaseAnonKey   string `env:"SUPABASE_ANON_KEY"`
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`

	DatabaseURL string `env:"DATABASE_URL"`

	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"finora"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	RedisTLS        bool          `env:"REDIS_TLS" envDefault:"false"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"10m"`

	KafkaBootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS"`
	KafkaAPIKey           string `env:"KAFKA_API_KEY"`
	KafkaAPISecret        string `env:"KAFKA_API_SECRET"`
	KafkaGroupID          string `env:"KAFKA_GROUP_ID" envDefault:"profile-event-consumer"`

	InternalAPIKey string `env:"INTERNAL_API_KEY"`
	AllowedOrigin  string `env:"ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`
	Workers        int    `env:"WORKERS" envDefault:"4"`
}

// Development reports whether the server runs with development logging.
func (c Config) Development() bool {
	return c.Environment == "development"
}

// SupabaseIssuer is the expected "iss" claim of Supabase access tokens.
func (c Config) SupabaseIssuer() string {
	return c.SupabaseURL + "/auth/v1"
}

// LoadDotEnv loads the given .env files into the process environment.
// A missing file is reported but is not fatal.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Workers <= 0 {
		return Config{}, fmt.Errorf("WORKERS must be positive, got %d", cfg.Workers)
	}
	return cfg, nil
}
