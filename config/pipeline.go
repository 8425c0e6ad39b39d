package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PipelineConfig tunes the per-upload answer pipeline.
type PipelineConfig struct {
	// PollInterval is the pause between transcription job state checks.
	PollInterval time.Duration `env:"PIPELINE_POLL_INTERVAL" envDefault:"2s"`

	// MaxPollAttempts bounds how many times a transcription job is polled before timing out.
	MaxPollAttempts int `env:"PIPELINE_MAX_POLL_ATTEMPTS" envDefault:"10"`

	// HeartbeatInterval is how long a progress stream stays idle before a keep-alive is sent.
	HeartbeatInterval time.Duration `env:"PIPELINE_HEARTBEAT_INTERVAL" envDefault:"30s"`

	// MinAudioBytes rejects uploads that are too small to contain speech.
	MinAudioBytes int `env:"PIPELINE_MIN_AUDIO_BYTES" envDefault:"1000"`

	// EventBuffer is the per-session progress event buffer.
	EventBuffer int `env:"PIPELINE_EVENT_BUFFER" envDefault:"32"`
}

// Sanitize applies guardrails to pipeline configuration values.
func (c *PipelineConfig) Sanitize() {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxPollAttempts <= 0 {
		c.MaxPollAttempts = 10
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.MinAudioBytes <= 0 {
		c.MinAudioBytes = 1000
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 32
	}
}

// StagingConfig controls where uploads are written before transcription.
type StagingConfig struct {
	Dir string `env:"STAGING_DIR" envDefault:""`
}

// Sanitize defaults the staging directory to a folder under the OS temp dir.
func (c *StagingConfig) Sanitize() {
	c.Dir = strings.TrimSpace(c.Dir)
	if c.Dir == "" {
		c.Dir = filepath.Join(os.TempDir(), "interviewer-uploads")
	}
}

// SweeperConfig contains staged audio sweeper configuration.
type SweeperConfig struct {
	// Interval is how often the sweeper runs.
	Interval time.Duration `env:"SWEEPER_INTERVAL" envDefault:"10m"`

	// MaxAge is the age after which a staged file is considered orphaned.
	MaxAge time.Duration `env:"SWEEPER_MAX_AGE" envDefault:"1h"`
}

// Sanitize applies guardrails to sweeper configuration values.
func (c *SweeperConfig) Sanitize() {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Minute
	}
	// a staged file must outlive the longest possible upload
	if c.MaxAge < 5*time.Minute {
		c.MaxAge = 5 * time.Minute
	}
}
