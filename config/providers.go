package config

import (
	"strings"
	"time"
)

// GeminiConfig configures the Gemini API used for transcription and scoring.
type GeminiConfig struct {
	APIKey     string        `env:"API_KEY"`
	BaseURL    string        `env:"BASE_URL"    envDefault:"https://generativelanguage.googleapis.com"`
	Model      string        `env:"MODEL"       envDefault:"gemini-2.5-flash"`
	Timeout    time.Duration `env:"TIMEOUT"     envDefault:"60s"`
	RetryLimit int           `env:"RETRY_LIMIT" envDefault:"2"`
}

// Sanitize applies guardrails to Gemini configuration values.
func (c *GeminiConfig) Sanitize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Model = strings.TrimSpace(c.Model); c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
}

// SendGridConfig configures report and invitation email delivery.
type SendGridConfig struct {
	APIKey string `env:"API_KEY"`
	// BaseURL is the SendGrid API root; overridden in tests.
	BaseURL string `env:"BASE_URL" envDefault:"https://api.sendgrid.com"`
	// ReportFrom is the verified sender for employer reports.
	ReportFrom string `env:"REPORT_FROM"`
	// InviteFrom is the verified sender for applicant invitations.
	InviteFrom string        `env:"INVITE_FROM"`
	Timeout    time.Duration `env:"TIMEOUT"     envDefault:"10s"`
	RetryLimit int           `env:"RETRY_LIMIT" envDefault:"2"`
}

// Sanitize applies guardrails to SendGrid configuration values.
func (c *SendGridConfig) Sanitize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.ReportFrom = strings.TrimSpace(c.ReportFrom)
	c.InviteFrom = strings.TrimSpace(c.InviteFrom)
	if c.InviteFrom == "" {
		c.InviteFrom = c.ReportFrom
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
}

// SpeechConfig configures the text-to-speech provider for question prompts.
type SpeechConfig struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://texttospeech.googleapis.com"`
	Lang    string        `env:"LANG"     envDefault:"en-US"`
	Voice   string        `env:"VOICE"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"15s"`
}

// Sanitize applies guardrails to speech configuration values.
func (c *SpeechConfig) Sanitize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Lang = strings.TrimSpace(c.Lang); c.Lang == "" {
		c.Lang = "en-US"
	}
	c.Voice = strings.TrimSpace(c.Voice)
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}
