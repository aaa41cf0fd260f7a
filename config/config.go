package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. BOWLING_DATABASE_DSN.
const EnvPrefix = "BOWLING"

// Config represents the overall application configuration.
type Config struct {
	Server         ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Database       DatabaseConfig   `yaml:"database" envconfig:"DATABASE"`
	Booking        BookingConfig    `yaml:"booking" envconfig:"BOOKING"`
	Sweeper        SweeperConfig    `yaml:"sweeper" envconfig:"SWEEPER"`
	Auth           AuthConfig       `yaml:"auth" envconfig:"AUTH"`
	Mail           MailConfig       `yaml:"mail" envconfig:"MAIL"`
	Push           PushConfig       `yaml:"push" envconfig:"PUSH"`
	WorkerPool     WorkerPoolConfig `yaml:"worker_pool" envconfig:"WORKER_POOL"`
	Events         EventsConfig     `yaml:"events" envconfig:"EVENTS"`
	Catalog        CatalogConfig    `yaml:"catalog" envconfig:"CATALOG"`
	Log            LogConfig        `yaml:"log" envconfig:"LOG"`
	BootstrapOwner OwnerConfig      `yaml:"bootstrap_owner" envconfig:"BOOTSTRAP_OWNER"`
	Venue          VenueConfig      `yaml:"venue" ignored:"true"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" envconfig:"RATE_LIMIT_PER_SEC"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" envconfig:"CACHE_TTL_SECONDS"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" envconfig:"DRIVER" validate:"oneof=postgres sqlite"`
	DSN                    string `yaml:"dsn" envconfig:"DSN" validate:"required"`
	MaxOpenConns           int    `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns           int    `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" envconfig:"CONN_MAX_LIFETIME_MINUTES"`
	LogLevel               string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"omitempty,oneof=silent error warn info"`
}

// BookingConfig controls reservation holds.
type BookingConfig struct {
	HoldMinutes int           `yaml:"hold_minutes" envconfig:"HOLD_MINUTES"`
	Hold        time.Duration `yaml:"-" ignored:"true"`
}

// SweeperConfig controls the optional expired-hold sweeper.
type SweeperConfig struct {
	Enabled         bool          `yaml:"enabled" envconfig:"ENABLED"`
	IntervalSeconds int           `yaml:"interval_seconds" envconfig:"INTERVAL_SECONDS"`
	Interval        time.Duration `yaml:"-" ignored:"true"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" envconfig:"JWT_SECRET" validate:"required,min=16"`
	TokenTTLMinutes int           `yaml:"token_ttl_minutes" envconfig:"TOKEN_TTL_MINUTES"`
	TokenTTL        time.Duration `yaml:"-" ignored:"true"`
}

// MailConfig holds the SMTP settings for confirmation emails.
type MailConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	Username string `yaml:"username" envconfig:"USERNAME"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	From     string `yaml:"from" envconfig:"FROM" validate:"omitempty,email"`
	SSL      bool   `yaml:"ssl" envconfig:"SSL"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key" envconfig:"VAPID_PUBLIC_KEY"`
	PrivateKey string `yaml:"vapid_private_key" envconfig:"VAPID_PRIVATE_KEY"`
	Subject    string `yaml:"subject" envconfig:"SUBJECT"`
	TTL        int    `yaml:"ttl" envconfig:"TTL"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size" envconfig:"SIZE"`
	QueueSize int `yaml:"queue_size" envconfig:"QUEUE_SIZE"`
}

// EventsConfig configures the booking event publisher. An empty URL disables it.
type EventsConfig struct {
	URL      string `yaml:"url" envconfig:"URL"`
	Exchange string `yaml:"exchange" envconfig:"EXCHANGE"`
}

// CatalogConfig controls caching of venue reference data.
type CatalogConfig struct {
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds" envconfig:"CACHE_TTL_SECONDS"`
	CacheTTL        time.Duration `yaml:"-" ignored:"true"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Env string `yaml:"env" envconfig:"ENV" validate:"omitempty,oneof=production development"`
}

// OwnerConfig describes the first OWNER account created at startup.
type OwnerConfig struct {
	Email    string `yaml:"email" envconfig:"EMAIL" validate:"omitempty,email"`
	Password string `yaml:"password" envconfig:"PASSWORD" validate:"required_with=Email"`
	FullName string `yaml:"full_name" envconfig:"FULL_NAME"`
}

// VenueConfig is the seed data for lanes and schedules.
type VenueConfig struct {
	Lanes     []LaneSeed     `yaml:"lanes" validate:"dive"`
	Schedules []ScheduleSeed `yaml:"schedules" validate:"dive"`
}

// LaneSeed describes one lane.
type LaneSeed struct {
	Number string `yaml:"number" validate:"required"`
	Type   string `yaml:"type" validate:"omitempty,oneof=NORMAL PREMIUM"`
}

// ScheduleSeed describes one weekly schedule and its price slots.
type ScheduleSeed struct {
	Name     string     `yaml:"name" validate:"required"`
	Weekdays []int      `yaml:"weekdays" validate:"dive,min=0,max=6"`
	Slots    []SlotSeed `yaml:"slots" validate:"dive"`
}

// SlotSeed describes one price slot; times are "HH:MM".
type SlotSeed struct {
	Start string  `yaml:"start" validate:"required"`
	End   string  `yaml:"end" validate:"required"`
	Price float64 `yaml:"price" validate:"min=0"`
}

// Load reads the configuration from the given path, applies BOWLING_* environment
// overrides and defaults, and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, err
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct-level constraints of a configuration.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Mail.Enabled && (cfg.Mail.Host == "" || cfg.Mail.From == "") {
		return fmt.Errorf("invalid configuration: mail.host and mail.from are required when mail is enabled")
	}
	seen := make(map[int]string)
	for _, s := range cfg.Venue.Schedules {
		for _, d := range s.Weekdays {
			if other, ok := seen[d]; ok {
				return fmt.Errorf("invalid configuration: weekday %d assigned to both %q and %q", d, other, s.Name)
			}
			seen[d] = s.Name
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Booking.HoldMinutes <= 0 {
		cfg.Booking.HoldMinutes = 10
	}
	cfg.Booking.Hold = time.Duration(cfg.Booking.HoldMinutes) * time.Minute

	if cfg.Sweeper.IntervalSeconds <= 0 {
		cfg.Sweeper.IntervalSeconds = 60
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second

	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 30
	}
	cfg.Auth.TokenTTL = time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute

	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 100
	}

	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "bowling.bookings"
	}

	if cfg.Catalog.CacheTTLSeconds <= 0 {
		cfg.Catalog.CacheTTLSeconds = 60
	}
	cfg.Catalog.CacheTTL = time.Duration(cfg.Catalog.CacheTTLSeconds) * time.Second

	if cfg.Log.Env == "" {
		cfg.Log.Env = "production"
	}

	for i := range cfg.Venue.Lanes {
		if cfg.Venue.Lanes[i].Type == "" {
			cfg.Venue.Lanes[i].Type = "NORMAL"
		}
	}
}
