// Package sweeper provides the adapter that runs the staged audio sweeper.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/mmk-interviews/config"
	"github.com/target/mmk-interviews/internal/adapters/staging"
	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/observability/statsd"
	"github.com/target/mmk-interviews/internal/service"
)

// Runner builds the sweeper service over the staging directory and runs its loop.
type Runner struct {
	sweeper *service.SweeperService
	logger  *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Staging config.StagingConfig
	Config  config.SweeperConfig
	Logger  *slog.Logger
	Metrics statsd.Sink

	// Optional dependency injection for testing
	Stager core.AudioStager
}

// NewRunner creates a new sweeper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	stager := opts.Stager
	if stager == nil {
		if opts.Staging.Dir == "" {
			return nil, errors.New("staging directory is required")
		}
		disk, err := staging.New(staging.Options{Dir: opts.Staging.Dir})
		if err != nil {
			return nil, fmt.Errorf("open staging directory: %w", err)
		}
		stager = disk
	}

	sweeper, err := service.NewSweeperService(service.SweeperServiceOptions{
		Stager:  stager,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire sweeper service: %w", err)
	}

	return &Runner{sweeper: sweeper, logger: opts.Logger}, nil
}

// Run starts the sweeper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting staged audio sweeper")
	return r.sweeper.Run(ctx)
}
