package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	Environment string `env:"APP_ENV" envDefault:"development"`

	Server struct {
		Port            int           `env:"PORT" envDefault:"8080"`
		Origin          string        `env:"ORIGIN" envDefault:"http://localhost:3000"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
		Database        string        `env:"POSTGRES_DB" envDefault:"gifts"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
		AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken      string        `env:"BOT_TOKEN"`
		WebhookSecret string        `env:"TELEGRAM_WEBHOOK_SECRET"`
		InitDataTTL   time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
	}

	Admin struct {
		Username   string        `env:"ADMIN_USERNAME" envDefault:"admin"`
		Password   string        `env:"ADMIN_PASSWORD"`
		SessionTTL time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"8h"`
	}

	Payments struct {
		StrictAmount bool          `env:"PAYMENTS_STRICT_AMOUNT" envDefault:"true"`
		InvoiceTTL   time.Duration `env:"PAYMENTS_INVOICE_TTL" envDefault:"24h"`
	}

	Cache struct {
		GiftsTTL       time.Duration `env:"CACHE_GIFTS_TTL" envDefault:"10s"`
		LeaderboardTTL time.Duration `env:"CACHE_LEADERBOARD_TTL" envDefault:"30s"`
	}

	RateLimit struct {
		RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
		Burst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
	}
}

// GetDSN собирает строку подключения к PostgreSQL
func (c *Config) GetDSN() string {
	p := c.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// RedisAddr returns host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*Config, error) {
	// .env необязателен: в production переменные задаются напрямую
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Telegram.BotToken == "" && !c.Debug {
		return fmt.Errorf("BOT_TOKEN is required outside of debug mode")
	}
	if c.Telegram.WebhookSecret == "" && c.IsProduction() {
		return fmt.Errorf("TELEGRAM_WEBHOOK_SECRET is required in production")
	}
	if c.Admin.Password == "" && !c.Debug {
		return fmt.Errorf("ADMIN_PASSWORD is required outside of debug mode")
	}
	if c.Admin.SessionTTL <= 0 {
		return fmt.Errorf("ADMIN_SESSION_TTL must be positive")
	}
	return nil
}
