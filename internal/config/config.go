// Package config loads the test environment configuration.
//
// The suite is driven by the same variables the deployment scripts use:
// WEB_URL, LOGIN, PASSWORD and COMPANY_NAME, read from the environment or
// from an optional .env.test file in the working directory.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds everything needed to reach and authenticate against a
// running Waterfall deployment.
type Config struct {
	// WebURL is the public base URL of the web gateway, e.g.
	// https://localhost:3000. All service APIs are reached under
	// WebURL + /api/<service>.
	WebURL string `mapstructure:"WEB_URL" validate:"required,url"`

	// Login and Password identify the bootstrap admin account created
	// during application initialization.
	Login    string `mapstructure:"LOGIN" validate:"required,email"`
	Password string `mapstructure:"PASSWORD" validate:"required"`

	// CompanyName is used by the UI initialization flow and the seeder.
	CompanyName string `mapstructure:"COMPANY_NAME"`

	// HTTPTimeout bounds individual requests, WaitTimeout bounds
	// readiness polling of a service health endpoint.
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
	WaitTimeout time.Duration `mapstructure:"WAIT_TIMEOUT"`

	// Browser settings for the UI suites.
	Headless   bool   `mapstructure:"HEADLESS"`
	BrowserBin string `mapstructure:"BROWSER_BIN"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from the environment and, when present, from
// .env.test. A missing file is not an error: an empty WebURL simply means
// no deployment is configured and the integration suites skip themselves.
func Load() (*Config, error) {
	return LoadFile(".env.test")
}

// LoadFile is Load with an explicit dotenv path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("WAIT_TIMEOUT", 120*time.Second)
	v.SetDefault("HEADLESS", true)
	v.SetDefault("BROWSER_BIN", "")
	v.SetDefault("COMPANY_NAME", "")
	v.SetDefault("LOG_LEVEL", "info")

	for _, key := range []string{
		"WEB_URL", "LOGIN", "PASSWORD", "COMPANY_NAME",
		"HTTP_TIMEOUT", "WAIT_TIMEOUT", "HEADLESS", "BROWSER_BIN", "LOG_LEVEL",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	// The dotenv file is optional; environment variables alone are fine.
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("dotenv")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Configured reports whether a deployment target is set at all.
func (c *Config) Configured() bool {
	return c != nil && c.WebURL != ""
}

// Validate checks that the configuration is complete enough to run the
// integration suites against a live deployment.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
