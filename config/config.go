package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - http.go: HTTP server configuration
//   - redis.go: Redis and prompt audio cache configuration
//   - pipeline.go: answer pipeline, staging and sweeper configuration
//   - providers.go: Gemini, SendGrid and speech provider configuration
//   - services.go: Service mode configuration
type AppConfig struct {
	// IsDev controls development mode behavior (text logs at debug level).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Redis is optional; without it prompt audio is cached in process only.
	Redis RedisConfig `envPrefix:"REDIS_"`
	Cache CacheConfig

	// Answer pipeline configuration
	Pipeline PipelineConfig
	Staging  StagingConfig
	Sweeper  SweeperConfig

	// External providers
	Gemini   GeminiConfig   `envPrefix:"GEMINI_"`
	SendGrid SendGridConfig `envPrefix:"SENDGRID_"`
	Speech   SpeechConfig   `envPrefix:"SPEECH_"`

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Redis.Sanitize()
	c.Cache.Sanitize()
	c.Pipeline.Sanitize()
	c.Staging.Sanitize()
	c.Sweeper.Sanitize()
	c.Gemini.Sanitize()
	c.SendGrid.Sanitize()
	c.Speech.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsSweeperEnabled returns true if the staged audio sweeper is enabled.
func (c *AppConfig) IsSweeperEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeSweeper]
}
