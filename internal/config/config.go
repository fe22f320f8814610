// Package config loads service configuration from the environment. A .env
// file, when present, is loaded first and never overrides variables that
// are already set.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // containers ship without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local" validate:"oneof=local dev staging prod"`
	Port        string `envconfig:"PORT" default:"8080" validate:"required,numeric"`

	Database  DatabaseConfig
	LLM       LLMConfig
	Dashboard DashboardConfig
}

type DatabaseConfig struct {
	URL      string `envconfig:"DATABASE_URL" validate:"required"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10" validate:"gte=1"`
}

type LLMConfig struct {
	GatewayURL   string        `envconfig:"LLM_GATEWAY_URL" validate:"required_if=UseMock false"`
	APIKey       string        `envconfig:"LLM_API_KEY" validate:"required_if=UseMock false"`
	Model        string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	UseMock      bool          `envconfig:"USE_MOCK_LLM" default:"false"`
	Timeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"25s"`
	MaxRetryTime time.Duration `envconfig:"LLM_MAX_RETRY_TIME" default:"45s"`
}

type DashboardConfig struct {
	Timezone       string        `envconfig:"DASHBOARD_TIMEZONE" default:"Europe/Dublin"`
	TrendFields    []string      `envconfig:"DASHBOARD_TREND_FIELDS" default:"guinness,carlsberg,hop_house_13"`
	ProfilePath    string        `envconfig:"NARRATIVE_PROFILE"`
	SalesHistory   int           `envconfig:"DASHBOARD_SALES_DAYS" default:"28" validate:"gte=14"`
	RequestTimeout time.Duration `envconfig:"DASHBOARD_REQUEST_TIMEOUT" default:"20s"`
}

// Location resolves the dashboard timezone.
func (d DashboardConfig) Location() (*time.Location, error) {
	return time.LoadLocation(d.Timezone)
}

// Load reads .env (if any), the environment, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	for i, f := range cfg.Dashboard.TrendFields {
		cfg.Dashboard.TrendFields[i] = strings.TrimSpace(f)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Dashboard.Location(); err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", cfg.Dashboard.Timezone, err)
	}
	return &cfg, nil
}
