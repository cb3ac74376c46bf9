// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/varchas/website/internal/models"
)

type AppConfig struct {
	Name            string        `yaml:"name" env:"VARCHAS_APP_NAME"`
	Environment     string        `yaml:"environment" env:"VARCHAS_ENVIRONMENT"`
	Port            int           `yaml:"port" env:"VARCHAS_PORT"`
	BaseURL         string        `yaml:"base_url" env:"VARCHAS_BASE_URL"`
	StaticDir       string        `yaml:"static_dir" env:"VARCHAS_STATIC_DIR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"VARCHAS_SHUTDOWN_TIMEOUT"`
	SecretKey       string        `yaml:"-" env:"VARCHAS_SECRET_KEY"` // Loaded from environment
}

type BackendConfig struct {
	URL     string        `yaml:"url" env:"VARCHAS_BACKEND_URL"`
	Timeout time.Duration `yaml:"timeout" env:"VARCHAS_BACKEND_TIMEOUT"`
}

type RegistrationConfig struct {
	// AutoCloseDelay keeps a successfully submitted form visible before it
	// closes. Negative disables auto-close.
	AutoCloseDelay time.Duration `yaml:"auto_close_delay" env:"VARCHAS_AUTO_CLOSE_DELAY"`
	FormTTL        time.Duration `yaml:"form_ttl" env:"VARCHAS_FORM_TTL"`
	SweepSchedule  string        `yaml:"sweep_schedule" env:"VARCHAS_SWEEP_SCHEDULE"`
	// CatalogFile replaces the built-in sport table when set.
	CatalogFile string `yaml:"catalog_file" env:"VARCHAS_CATALOG_FILE"`
}

type SessionConfig struct {
	TTL    time.Duration `yaml:"ttl" env:"VARCHAS_SESSION_TTL"`
	Secure bool          `yaml:"secure" env:"VARCHAS_SESSION_SECURE"`
}

type RateLimitConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" env:"VARCHAS_LOGIN_MAX_ATTEMPTS"`
	Lockout      time.Duration `yaml:"lockout" env:"VARCHAS_LOGIN_LOCKOUT"`
	MaxIPPerHour int           `yaml:"max_ip_per_hour" env:"VARCHAS_LOGIN_MAX_IP_PER_HOUR"`
	TrustProxy   bool          `yaml:"trust_proxy" env:"VARCHAS_TRUST_PROXY"`
}

type Config struct {
	App          AppConfig          `yaml:"app"`
	Backend      BackendConfig      `yaml:"backend"`
	Registration RegistrationConfig `yaml:"registration"`
	Session      SessionConfig      `yaml:"session"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Theme        models.Theme       `yaml:"theme"`

	Features struct {
		EnableDebug bool `yaml:"enable_debug" env:"VARCHAS_DEBUG"`
	} `yaml:"features"`
}

// Default returns the configuration used for anything app.yaml leaves out.
func Default() Config {
	var cfg Config
	cfg.App.Name = "Varchas"
	cfg.App.Environment = "development"
	cfg.App.Port = 8080
	cfg.App.StaticDir = "build/bin/static"
	cfg.App.ShutdownTimeout = 30 * time.Second
	cfg.Backend.Timeout = 15 * time.Second
	cfg.Registration.AutoCloseDelay = 2 * time.Second
	cfg.Registration.FormTTL = 30 * time.Minute
	cfg.Registration.SweepSchedule = "*/5 * * * *"
	cfg.Session.TTL = 8 * time.Hour
	cfg.RateLimit.MaxAttempts = 5
	cfg.RateLimit.Lockout = 5 * time.Minute
	cfg.RateLimit.MaxIPPerHour = 30
	cfg.Theme = models.DefaultTheme()
	return cfg
}

// Load reads .env next to configPath, then the yaml file, then VARCHAS_*
// environment overrides.
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	cfg.Theme = cfg.Theme.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Name == "" {
		errs = append(errs, fmt.Errorf("app name is required"))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app port must be between 1 and 65535, got %d", c.App.Port))
	}
	if c.App.SecretKey == "" {
		errs = append(errs, fmt.Errorf("VARCHAS_SECRET_KEY is required"))
	}

	if c.Backend.URL == "" {
		errs = append(errs, fmt.Errorf("backend url is required"))
	} else if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend url must be absolute, got %q", c.Backend.URL))
	}

	for name, d := range map[string]time.Duration{
		"backend timeout":  c.Backend.Timeout,
		"form ttl":         c.Registration.FormTTL,
		"session ttl":      c.Session.TTL,
		"login lockout":    c.RateLimit.Lockout,
		"shutdown timeout": c.App.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.Registration.SweepSchedule == "" {
		errs = append(errs, fmt.Errorf("registration sweep schedule is required"))
	}
	if c.RateLimit.MaxAttempts <= 0 || c.RateLimit.MaxIPPerHour <= 0 {
		errs = append(errs, fmt.Errorf("rate limit attempts must be positive"))
	}

	if err := c.Theme.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("theme: %w", err))
	}

	return errors.Join(errs...)
}
