package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	Mode           string `mapstructure:"mode"` // gin mode: debug, release, test
	ClientURL      string `mapstructure:"client_url"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver    string        `mapstructure:"driver"` // postgres, mysql, sqlite
	DSN       string        `mapstructure:"dsn"`
	OpTimeout time.Duration `mapstructure:"op_timeout"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type AdminConfig struct {
	// VerifyForcePaths makes the admin force paths re-check the caller's global role.
	VerifyForcePaths bool `mapstructure:"verify_force_paths"`
}

type NotifierConfig struct {
	Kind            string        `mapstructure:"kind"` // log, smtp, slack, discord
	Timeout         time.Duration `mapstructure:"timeout"`
	WebhookURL      string        `mapstructure:"webhook_url"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
	SMTP            SMTPConfig    `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Window   time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3000",
			Mode: "release",
		},
		Database: DatabaseConfig{
			Driver:    "sqlite",
			DSN:       "data/tasktrack.db",
			OpTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 8 * time.Hour,
		},
		Notifier: NotifierConfig{
			Kind:            "log",
			Timeout:         10 * time.Second,
			BreakerFailures: 3,
			BreakerCooldown: 30 * time.Second,
			SMTP: SMTPConfig{
				Port: 587,
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Interval: 15 * time.Minute,
			Window:   24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads an optional .env file, then the YAML file at path (when set), then
// TASKTRACK_* environment variables. Later sources win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("TASKTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Plain names kept for deployments that predate the prefixed variables.
	_ = v.BindEnv("server.port", "TASKTRACK_SERVER_PORT", "PORT")
	_ = v.BindEnv("auth.jwt_secret", "TASKTRACK_AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("database.dsn", "TASKTRACK_DATABASE_DSN", "DATABASE_URL")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is not set")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Notifier.Kind {
	case "log", "smtp", "slack", "discord":
	default:
		return fmt.Errorf("unsupported notifier kind: %s", c.Notifier.Kind)
	}
	if (c.Notifier.Kind == "slack" || c.Notifier.Kind == "discord") && c.Notifier.WebhookURL == "" {
		return fmt.Errorf("notifier.webhook_url is required for %s", c.Notifier.Kind)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.mode", cfg.Server.Mode)
	v.SetDefault("server.client_url", cfg.Server.ClientURL)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)

	v.SetDefault("database.driver", cfg.Database.Driver)
	v.SetDefault("database.dsn", cfg.Database.DSN)
	v.SetDefault("database.op_timeout", cfg.Database.OpTimeout)

	v.SetDefault("auth.jwt_secret", cfg.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", cfg.Auth.TokenTTL)

	v.SetDefault("admin.verify_force_paths", cfg.Admin.VerifyForcePaths)

	v.SetDefault("notifier.kind", cfg.Notifier.Kind)
	v.SetDefault("notifier.timeout", cfg.Notifier.Timeout)
	v.SetDefault("notifier.webhook_url", cfg.Notifier.WebhookURL)
	v.SetDefault("notifier.breaker_failures", cfg.Notifier.BreakerFailures)
	v.SetDefault("notifier.breaker_cooldown", cfg.Notifier.BreakerCooldown)
	v.SetDefault("notifier.smtp.host", cfg.Notifier.SMTP.Host)
	v.SetDefault("notifier.smtp.port", cfg.Notifier.SMTP.Port)
	v.SetDefault("notifier.smtp.username", cfg.Notifier.SMTP.Username)
	v.SetDefault("notifier.smtp.password", cfg.Notifier.SMTP.Password)
	v.SetDefault("notifier.smtp.from", cfg.Notifier.SMTP.From)

	v.SetDefault("scheduler.enabled", cfg.Scheduler.Enabled)
	v.SetDefault("scheduler.interval", cfg.Scheduler.Interval)
	v.SetDefault("scheduler.window", cfg.Scheduler.Window)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}
