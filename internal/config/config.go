package config

import (
	"fmt"
	"time"

	"github.com/nikalaichik/moderator-bot/internal/nightmode"
	"github.com/nikalaichik/moderator-bot/internal/repository"

	"github.com/caarlos0/env/v11"
	"github.com/samber/lo"
)

const (
	PlatformTelegram = "telegram"
	PlatformMax      = "max"
)

type Config struct {
	Platform      string `env:"PLATFORM" envDefault:"telegram"`
	BotToken      string `env:"BOT_TOKEN,required,notEmpty"`
	WebhookHost   string `env:"WEBHOOK_HOST"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	Port          string `env:"PORT" envDefault:"8080"`
	MetricsAddr   string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath     string `env:"DB_PATH" envDefault:"moderator.db"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`

	RedisURL      string        `env:"REDIS_URL"`
	AdminCacheTTL time.Duration `env:"ADMIN_CACHE_TTL" envDefault:"30s"`

	ForbiddenWordsFile    string `env:"FORBIDDEN_WORDS_FILE" envDefault:"forbidden_words.txt"`
	SpamMessageLimit      int    `env:"SPAM_MESSAGE_LIMIT" envDefault:"5"`
	SpamTimeWindowSeconds int    `env:"SPAM_TIME_WINDOW_SECONDS" envDefault:"10"`
	SpamMuteDurationHours int    `env:"SPAM_MUTE_DURATION_HOURS" envDefault:"6"`

	NightStart string `env:"NIGHT_START" envDefault:"22:00"`
	DayStart   string `env:"DAY_START" envDefault:"09:00"`
	Timezone   string `env:"TIMEZONE" envDefault:"Europe/Moscow"`

	Workers            int           `env:"WORKERS" envDefault:"8"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	NoticeTTL          time.Duration `env:"NOTICE_TTL" envDefault:"1m"`
	RetryDelay         time.Duration `env:"RETRY_DELAY" envDefault:"1s"`
	DefaultMuteMinutes int           `env:"DEFAULT_MUTE_MINUTES" envDefault:"60"`
	EnableTelemetry    bool          `env:"ENABLE_TELEMETRY" envDefault:"true"`
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == repository.DriverPostgres {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	}
	return c.DBPath
}

func (c *Config) Schedule() (nightmode.Schedule, error) {
	return nightmode.NewSchedule(c.NightStart, c.DayStart, c.Timezone)
}

func (c *Config) DefaultMute() time.Duration {
	return time.Duration(c.DefaultMuteMinutes) * time.Minute
}

func (c *Config) Validate() error {
	if !lo.Contains([]string{PlatformTelegram, PlatformMax}, c.Platform) {
		return fmt.Errorf("unknown PLATFORM %q", c.Platform)
	}
	if !lo.Contains([]string{repository.DriverSQLite, repository.DriverPostgres}, c.DBDriver) {
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDriver == repository.DriverPostgres && (c.DBUser == "" || c.DBName == "") {
		return fmt.Errorf("DB_USER and DB_NAME are required for postgres")
	}
	if c.SpamMessageLimit < 1 || c.SpamTimeWindowSeconds < 1 || c.SpamMuteDurationHours < 1 {
		return fmt.Errorf("spam limit, window and mute duration must be positive")
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	}
	if c.DefaultMuteMinutes < 1 {
		return fmt.Errorf("DEFAULT_MUTE_MINUTES must be positive, got %d", c.DefaultMuteMinutes)
	}
	if _, err := c.Schedule(); err != nil {
		return fmt.Errorf("invalid night schedule: %w", err)
	}
	return nil
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
