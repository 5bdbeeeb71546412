package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string `env:"PORT" envDefault:"8080"`

	// DatabaseURL wins over the individual DB_* settings when set.
	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"fixly"`
	DBPassword  string `env:"DB_PASSWORD" envDefault:"fixly_dev_password"`
	DBName      string `env:"DB_NAME" envDefault:"fixly"`

	JWTSecret   string   `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`

	// SendRatePerMin caps POST /messages per user. Zero disables the limit.
	SendRatePerMin int `env:"SEND_RATE_PER_MIN" envDefault:"30"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SendRatePerMin < 0 {
		return nil, fmt.Errorf("SEND_RATE_PER_MIN must not be negative, got %d", cfg.SendRatePerMin)
	}
	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}
	return &cfg, nil
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// Client holds the settings of the terminal inbox client.
type Client struct {
	APIURL   string `env:"FIXLY_API_URL" envDefault:"http://localhost:8080/api"`
	Token    string `env:"FIXLY_TOKEN"`
	Email    string `env:"FIXLY_EMAIL"`
	Password string `env:"FIXLY_PASSWORD"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func LoadClient() (*Client, error) {
	_ = godotenv.Load()

	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Token == "" && (cfg.Email == "" || cfg.Password == "") {
		return nil, fmt.Errorf("set FIXLY_TOKEN or FIXLY_EMAIL and FIXLY_PASSWORD")
	}
	return &cfg, nil
}
