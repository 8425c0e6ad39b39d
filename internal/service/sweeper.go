package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/mmk-interviews/config"
	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/observability/metrics"
	"github.com/target/mmk-interviews/internal/observability/statsd"
)

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Stager  core.AudioStager     // Required: owns the staging directory
	Config  config.SweeperConfig // Required: sweep interval and max age
	Now     func() time.Time     // Optional: defaults to time.Now
	Logger  *slog.Logger         // Optional: structured logger
	Metrics statsd.Sink          // Optional: metrics sink (StatsD-compatible)
}

// SweeperService removes staged uploads left behind by crashed or killed requests.
// Every normal exit path of the answer pipeline removes its own file; this only
// catches what those paths could not.
type SweeperService struct {
	stager  core.AudioStager
	config  config.SweeperConfig
	now     func() time.Time
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewSweeperService constructs a new SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	if opts.Stager == nil {
		return nil, errors.New("audio stager is required")
	}
	cfg := opts.Config
	cfg.Sanitize()

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sweeper_service")
	logger.Debug("SweeperService initialized", "interval", cfg.Interval, "max_age", cfg.MaxAge)

	return &SweeperService{
		stager:  opts.Stager,
		config:  cfg,
		now:     now,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *SweeperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting sweeper service", "interval", s.config.Interval)

	// Add jitter so replicas sharing a volume do not sweep in lockstep
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.SweepOnce(ctx); err != nil && !isContextCancellation(err) {
		s.logger.ErrorContext(ctx, "initial sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sweeper service stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && !isContextCancellation(err) {
				// keep running; the next tick retries
				s.logger.ErrorContext(ctx, "sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce deletes staged files older than the configured max age and returns how many
// were removed.
func (s *SweeperService) SweepOnce(ctx context.Context) (int, error) {
	start := time.Now()
	cutoff := s.now().Add(-s.config.MaxAge)

	removed, err := s.stager.Sweep(ctx, cutoff)

	result := metrics.ResultFor(err)
	if err == nil && removed == 0 {
		result = metrics.ResultNoop
	}
	if s.metrics != nil {
		tags := map[string]string{"result": result}
		s.metrics.Count("staging.sweep", 1, tags)
		s.metrics.Count("staging.sweep.removed", int64(removed), metrics.CloneTags(tags))
		s.metrics.Timing("staging.sweep.duration", time.Since(start), metrics.CloneTags(tags))
	}

	if err != nil {
		return removed, fmt.Errorf("sweep staged audio: %w", err)
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "removed orphaned staged audio", "count", removed, "cutoff", cutoff)
	}
	return removed, nil
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *SweeperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	// Use modulo on uint64 before converting to avoid overflow
	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
