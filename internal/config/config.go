package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	money "github.com/rezonia/efactura-editor/internal/decimal"
)

// Config groups application settings read from the environment and an optional file
type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	Log    LogConfig
	Editor EditorConfig
}

// AppConfig holds general settings
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// HTTPConfig holds API server settings
type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns host:port
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// EditorConfig holds session defaults
type EditorConfig struct {
	Locale                   string
	DefaultCurrency          string
	DefaultVATRate           decimal.Decimal
	ClearOverridesOnLineEdit bool
	TempDir                  string
}

// IsDevelopment reports whether APP_ENV is development
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// Load reads configuration from environment variables, then .env / config files in the
// working directory. Environment variables win.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory for the optional config files
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(dir, "config"))
	_ = v.MergeInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	rate, err := money.FromString(v.GetString("EDITOR_DEFAULT_VAT_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid EDITOR_DEFAULT_VAT_RATE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("APP_ENV"),
			Name: v.GetString("APP_NAME"),
		},
		HTTP: HTTPConfig{
			Host:         v.GetString("HTTP_HOST"),
			Port:         v.GetInt("HTTP_PORT"),
			ReadTimeout:  v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("HTTP_WRITE_TIMEOUT"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Editor: EditorConfig{
			Locale:                   v.GetString("EDITOR_LOCALE"),
			DefaultCurrency:          strings.ToUpper(v.GetString("EDITOR_DEFAULT_CURRENCY")),
			DefaultVATRate:           rate,
			ClearOverridesOnLineEdit: v.GetBool("EDITOR_CLEAR_OVERRIDES_ON_LINE_EDIT"),
			TempDir:                  v.GetString("EDITOR_TEMP_DIR"),
		},
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
		if cfg.IsDevelopment() {
			cfg.Log.Format = "console"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "efactura-editor")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("HTTP_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("HTTP_WRITE_TIMEOUT", 60*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("EDITOR_LOCALE", "ro")
	v.SetDefault("EDITOR_DEFAULT_CURRENCY", "RON")
	v.SetDefault("EDITOR_DEFAULT_VAT_RATE", "19")
	v.SetDefault("EDITOR_CLEAR_OVERRIDES_ON_LINE_EDIT", false)
	v.SetDefault("EDITOR_TEMP_DIR", filepath.Join(os.TempDir(), "efactura"))
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTP.Port)
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}
	if !money.IsNonNegative(c.Editor.DefaultVATRate) {
		return fmt.Errorf("invalid EDITOR_DEFAULT_VAT_RATE %s", c.Editor.DefaultVATRate)
	}
	if len(c.Editor.DefaultCurrency) != 3 {
		return fmt.Errorf("invalid EDITOR_DEFAULT_CURRENCY %q", c.Editor.DefaultCurrency)
	}
	return nil
}
