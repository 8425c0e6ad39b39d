package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:     "single service - sweeper",
			input:    "sweeper",
			expected: map[ServiceMode]bool{ServiceModeSweeper: true},
		},
		{
			name:  "services with spaces and duplicates",
			input: " http , sweeper ,http",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeSweeper: true,
			},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only spaces and commas",
			input:       " , , ",
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "http,rules-engine",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	tests := []struct {
		name            string
		services        string
		expectedHTTP    bool
		expectedSweeper bool
	}{
		{name: "http only", services: "http", expectedHTTP: true},
		{name: "sweeper only", services: "sweeper", expectedSweeper: true},
		{name: "both", services: "http,sweeper", expectedHTTP: true, expectedSweeper: true},
		{name: "invalid", services: "invalid-service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{Services: tt.services}

			if got := cfg.IsHTTPServerEnabled(); got != tt.expectedHTTP {
				t.Errorf("IsHTTPServerEnabled(): expected %v, got %v", tt.expectedHTTP, got)
			}
			if got := cfg.IsSweeperEnabled(); got != tt.expectedSweeper {
				t.Errorf("IsSweeperEnabled(): expected %v, got %v", tt.expectedSweeper, got)
			}
		})
	}
}

func TestValidServiceModes(t *testing.T) {
	expected := []ServiceMode{ServiceModeHTTP, ServiceModeSweeper}
	if modes := ValidServiceModes(); !reflect.DeepEqual(modes, expected) {
		t.Errorf("expected %v, got %v", expected, modes)
	}
}

func TestAppConfig_ParseDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Pipeline.PollInterval != 2*time.Second {
		t.Errorf("expected 2s poll interval, got %v", cfg.Pipeline.PollInterval)
	}
	if cfg.Pipeline.MaxPollAttempts != 10 {
		t.Errorf("expected 10 poll attempts, got %d", cfg.Pipeline.MaxPollAttempts)
	}
	if cfg.Pipeline.HeartbeatInterval != 30*time.Second {
		t.Errorf("expected 30s heartbeat, got %v", cfg.Pipeline.HeartbeatInterval)
	}
	if cfg.Pipeline.MinAudioBytes != 1000 {
		t.Errorf("expected 1000 min audio bytes, got %d", cfg.Pipeline.MinAudioBytes)
	}
	if cfg.Redis.Enabled {
		t.Error("expected redis to be disabled by default")
	}
	if cfg.Staging.Dir == "" {
		t.Error("expected staging dir default")
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected gemini model %q", cfg.Gemini.Model)
	}
}

func TestAppConfig_ParseProviderEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", " key-1 ")
	t.Setenv("GEMINI_BASE_URL", "https://gemini.internal/")
	t.Setenv("SENDGRID_API_KEY", "sg-key")
	t.Setenv("SENDGRID_REPORT_FROM", "reports@example.com")
	t.Setenv("SPEECH_LANG", "en-GB")
	t.Setenv("APP_FRONTEND_URL", "https://interviews.example.com/")
	t.Setenv("HTTP_CORS_ORIGINS", "https://interviews.example.com/, ,https://admin.example.com")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Gemini.APIKey != "key-1" {
		t.Errorf("expected trimmed api key, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.BaseURL != "https://gemini.internal" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Gemini.BaseURL)
	}
	if cfg.SendGrid.InviteFrom != "reports@example.com" {
		t.Errorf("expected invite sender to fall back to report sender, got %q", cfg.SendGrid.InviteFrom)
	}
	if cfg.Speech.Lang != "en-GB" {
		t.Errorf("unexpected speech lang %q", cfg.Speech.Lang)
	}
	if got := cfg.HTTP.InterviewURL("abc"); got != "https://interviews.example.com/session/abc" {
		t.Errorf("unexpected interview url %q", got)
	}
	if got := cfg.HTTP.ReportURL("abc"); got != "https://interviews.example.com/results/abc" {
		t.Errorf("unexpected report url %q", got)
	}
	expectedOrigins := []string{"https://interviews.example.com", "https://admin.example.com"}
	if !reflect.DeepEqual(cfg.HTTP.CORSOrigins, expectedOrigins) {
		t.Errorf("expected origins %v, got %v", expectedOrigins, cfg.HTTP.CORSOrigins)
	}
}

func TestPipelineConfig_Sanitize(t *testing.T) {
	cfg := PipelineConfig{PollInterval: -1, MaxPollAttempts: 0, HeartbeatInterval: 0, MinAudioBytes: -5, EventBuffer: 0}
	cfg.Sanitize()

	want := PipelineConfig{
		PollInterval:      2 * time.Second,
		MaxPollAttempts:   10,
		HeartbeatInterval: 30 * time.Second,
		MinAudioBytes:     1000,
		EventBuffer:       32,
	}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}
}

func TestSweeperConfig_Sanitize(t *testing.T) {
	cfg := SweeperConfig{Interval: 0, MaxAge: time.Second}
	cfg.Sanitize()

	if cfg.Interval != 10*time.Minute {
		t.Errorf("expected default interval, got %v", cfg.Interval)
	}
	if cfg.MaxAge != 5*time.Minute {
		t.Errorf("expected max age floor, got %v", cfg.MaxAge)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{CompressionLevel: 42, MaxUploadBytes: 0, FrontendURL: " http://localhost:5173/ "}
	cfg.Sanitize()

	if cfg.CompressionLevel != 9 {
		t.Errorf("expected compression level clamp, got %d", cfg.CompressionLevel)
	}
	if cfg.MaxUploadBytes != defaultMaxUploadBytes {
		t.Errorf("expected default upload cap, got %d", cfg.MaxUploadBytes)
	}
	if strings.HasSuffix(cfg.FrontendURL, "/") {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.FrontendURL)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    0,
		RetryLimit: -1,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: " ",
			Channel:    "  ",
			Username:   "",
		},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: " ",
			Source:     "",
			Component:  "",
		},
	}

	cfg.Sanitize()

	if cfg.Timeout <= 0 {
		t.Fatalf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit < 0 {
		t.Fatalf("expected retry limit to be clamped to >= 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled without a webhook url")
	}
	if cfg.PagerDuty.Enabled {
		t.Fatal("expected pagerduty to be disabled without a routing key")
	}
	if cfg.PagerDuty.Source != "interviewer" {
		t.Fatalf("expected pagerduty source default, got %q", cfg.PagerDuty.Source)
	}
	if cfg.PagerDuty.Component != "answer-pipeline" {
		t.Fatalf("expected pagerduty component default, got %q", cfg.PagerDuty.Component)
	}

	// Disabled top-level should disable child sinks.
	cfg = ObservabilityNotificationsConfig{
		Enabled: false,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: "https://hooks.slack.com/services/test",
		},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: "abc",
		},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled when top-level notifications disabled")
	}
	if cfg.PagerDuty.Enabled {
		t.Fatal("expected pagerduty to be disabled when top-level notifications disabled")
	}
}
