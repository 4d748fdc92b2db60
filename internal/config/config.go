package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL     string `mapstructure:"API_BASE_URL"`
	RequestTimeout int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	StateFile      string `mapstructure:"STATE_FILE"`
	OutputDir      string `mapstructure:"OUTPUT_DIR"`
	DefaultTheme   string `mapstructure:"DEFAULT_THEME"`
	Env            string `mapstructure:"ENV"`
	LiveURL        string `mapstructure:"LIVE_URL"`
	SandboxPort    string `mapstructure:"SANDBOX_PORT"`
	SandboxSecret  string `mapstructure:"SANDBOX_JWT_SECRET"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("API_BASE_URL", "http://localhost:8000/api")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 15)
	v.SetDefault("STATE_FILE", ".pulseboard/state.json")
	v.SetDefault("OUTPUT_DIR", ".pulseboard/pages")
	v.SetDefault("DEFAULT_THEME", "light")
	v.SetDefault("ENV", "development")
	v.SetDefault("SANDBOX_PORT", "8000")
	v.SetDefault("SANDBOX_JWT_SECRET", "")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("API_BASE_URL")
	v.BindEnv("REQUEST_TIMEOUT_SECONDS")
	v.BindEnv("STATE_FILE")
	v.BindEnv("OUTPUT_DIR")
	v.BindEnv("DEFAULT_THEME")
	v.BindEnv("ENV")
	v.BindEnv("LIVE_URL")
	v.BindEnv("SANDBOX_PORT")
	v.BindEnv("SANDBOX_JWT_SECRET")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run with. The sandbox JWT
// secret may be empty only in development, where a throwaway secret is
// generated at startup.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.RequestTimeout)
	}
	if c.DefaultTheme != "light" && c.DefaultTheme != "dark" {
		return fmt.Errorf("DEFAULT_THEME must be \"light\" or \"dark\", got %q", c.DefaultTheme)
	}
	if _, err := strconv.Atoi(c.SandboxPort); err != nil {
		return fmt.Errorf("SANDBOX_PORT must be numeric, got %q", c.SandboxPort)
	}
	if !c.IsDev() && c.SandboxSecret == "" {
		return fmt.Errorf("SANDBOX_JWT_SECRET is required outside development")
	}
	return nil
}
