package config

import (
	"strings"
	"time"
)

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// Sanitize trims connection settings and drops empty node entries.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	c.SentinelNodes = trimNonEmpty(c.SentinelNodes)
	c.ClusterNodes = trimNonEmpty(c.ClusterNodes)
	if c.UseCluster && len(c.ClusterNodes) == 0 {
		c.UseCluster = false
	}
}

// CacheConfig controls the prompt audio cache tiers.
type CacheConfig struct {
	// PromptAudioTTL is how long synthesized question audio stays in Redis and in process.
	PromptAudioTTL time.Duration `env:"CACHE_PROMPT_AUDIO_TTL" envDefault:"24h"`

	// LocalCapacity is the number of clips kept in the in-process LRU.
	LocalCapacity int `env:"CACHE_LOCAL_CAPACITY" envDefault:"256"`

	// KeyPrefix namespaces cache keys in a shared Redis.
	KeyPrefix string `env:"CACHE_KEY_PREFIX" envDefault:"interviewer:"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.PromptAudioTTL < 0 {
		c.PromptAudioTTL = 0
	}
	if c.LocalCapacity <= 0 {
		c.LocalCapacity = 256
	}
	c.KeyPrefix = strings.TrimSpace(c.KeyPrefix)
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
