package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/target/mmk-interviews/internal/core"
	apperrors "github.com/target/mmk-interviews/internal/errors"
	"github.com/target/mmk-interviews/internal/observability/metrics"
	"github.com/target/mmk-interviews/internal/observability/statsd"
)

// DefaultPromptAudioTTL is used when PromptAudioConfig.TTL is not positive.
const DefaultPromptAudioTTL = 24 * time.Hour

// maxPromptTextLen bounds the text accepted for synthesis.
const maxPromptTextLen = 2000

// LocalAudioCache is the in-process tier of the prompt audio cache.
type LocalAudioCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// PromptAudioConfig holds prompt audio settings.
type PromptAudioConfig struct {
	Lang string
	TTL  time.Duration
}

// PromptAudioServiceOptions groups dependencies for PromptAudioService.
type PromptAudioServiceOptions struct {
	Synthesizer core.SpeechSynthesizer // Required
	Local       LocalAudioCache        // Optional: in-process tier
	Shared      core.CacheRepository   // Optional: Redis tier
	Config      PromptAudioConfig
	Logger      *slog.Logger
	Metrics     statsd.Sink
}

// PromptAudioService turns question text into spoken audio, caching clips in process and in
// Redis so each question is synthesized once.
type PromptAudioService struct {
	synth   core.SpeechSynthesizer
	local   LocalAudioCache
	shared  core.CacheRepository
	lang    string
	ttl     time.Duration
	group   singleflight.Group
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewPromptAudioService constructs a new PromptAudioService.
func NewPromptAudioService(opts PromptAudioServiceOptions) (*PromptAudioService, error) {
	if opts.Synthesizer == nil {
		return nil, errors.New("speech synthesizer is required")
	}
	lang := strings.TrimSpace(opts.Config.Lang)
	if lang == "" {
		lang = "en-US"
	}
	ttl := opts.Config.TTL
	if ttl <= 0 {
		ttl = DefaultPromptAudioTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PromptAudioService{
		synth:   opts.Synthesizer,
		local:   opts.Local,
		shared:  opts.Shared,
		lang:    lang,
		ttl:     ttl,
		logger:  logger.With("component", "prompt_audio_service"),
		metrics: opts.Metrics,
	}, nil
}

// Synthesize returns MP3 audio for text. Concurrent misses for the same text share one
// synthesis call; Redis failures degrade to a miss.
func (s *PromptAudioService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ValidationField("text", "no text provided")
	}
	if len(text) > maxPromptTextLen {
		return nil, apperrors.ValidationField("text", "text is too long")
	}

	key := PromptAudioKey(s.lang, text)
	if s.local != nil {
		if audio, ok := s.local.Get(key); ok {
			metrics.EmitCache(s.metrics, "local", true)
			return audio, nil
		}
		metrics.EmitCache(s.metrics, "local", false)
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.load(ctx, key, text)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "prompt audio request collapsed", "key", key)
	}
	return v.([]byte), nil
}

// load consults Redis and falls back to the synthesizer, filling both tiers.
func (s *PromptAudioService) load(ctx context.Context, key, text string) ([]byte, error) {
	if audio := s.sharedGet(ctx, key); audio != nil {
		metrics.EmitCache(s.metrics, "redis", true)
		s.setLocal(key, audio)
		return audio, nil
	}
	if s.shared != nil {
		metrics.EmitCache(s.metrics, "redis", false)
	}

	start := time.Now()
	audio, err := s.synth.Synthesize(ctx, text, s.lang)
	if err == nil && len(audio) == 0 {
		err = errors.New("synthesizer returned no audio")
	}
	metrics.EmitStage(s.metrics, metrics.StageMetric{
		Stage:    "synthesize",
		Result:   metrics.ResultFor(err),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.MapContextError(ctx.Err())
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "synthesize prompt audio")
	}

	s.setLocal(key, audio)
	if s.shared != nil {
		if setErr := s.shared.Set(ctx, key, audio, s.ttl); setErr != nil {
			s.logger.WarnContext(ctx, "failed to cache prompt audio in redis", "key", key, "error", setErr)
		}
	}
	return audio, nil
}

func (s *PromptAudioService) sharedGet(ctx context.Context, key string) []byte {
	if s.shared == nil {
		return nil
	}
	audio, err := s.shared.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "prompt audio redis lookup failed", "key", key, "error", err)
		return nil
	}
	if len(audio) == 0 {
		return nil
	}
	return audio
}

func (s *PromptAudioService) setLocal(key string, audio []byte) {
	if s.local != nil {
		s.local.Set(key, audio, s.ttl)
	}
}

// PromptAudioKey is the cache key for a language and prompt text.
func PromptAudioKey(lang, text string) string {
	sum := sha256.Sum256([]byte(lang + "\x00" + text))
	return "prompt_audio:" + hex.EncodeToString(sum[:])
}
