package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-interviews/config"
	"github.com/target/mmk-interviews/internal/adapters/gemini"
	"github.com/target/mmk-interviews/internal/adapters/sendgrid"
	"github.com/target/mmk-interviews/internal/adapters/speech"
	"github.com/target/mmk-interviews/internal/adapters/staging"
	"github.com/target/mmk-interviews/internal/data"
	"github.com/target/mmk-interviews/internal/domain/progress"
	httpx "github.com/target/mmk-interviews/internal/http"
	"github.com/target/mmk-interviews/internal/observability/notify/pagerduty"
	"github.com/target/mmk-interviews/internal/observability/notify/slack"
	"github.com/target/mmk-interviews/internal/observability/statsd"
	"github.com/target/mmk-interviews/internal/service"
	"github.com/target/mmk-interviews/internal/service/failurenotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Sessions      *service.SessionService
	Pipeline      *service.AnswerPipeline
	PromptAudio   *service.PromptAudioService // nil when no speech provider is configured
	Progress      *progress.Registry
	HealthChecks  map[string]httpx.HealthChecker
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     statsd.Sink
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient // Optional
	Logger      *slog.Logger
}

// providers groups the external adapters behind the core ports.
type providers struct {
	gemini   *gemini.Client
	sendgrid *sendgrid.Client
	speech   *speech.Client
}

// BuildObservability configures metrics and notification adapters.
func BuildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink statsd.Sink
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "interviewer",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications),
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{
			Logger: baseLogger.With("component", "failure_notifier"),
		})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:      cfg.Slack.WebhookURL,
			Channel:         cfg.Slack.Channel,
			Username:        cfg.Slack.Username,
			Timeout:         cfg.Timeout,
			RetryLimit:      cfg.RetryLimit,
			ReportURLPrefix: cfg.Slack.ReportURLPrefix,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:  baseLogger.With("component", "failure_notifier"),
		Sinks:   sinks,
		Timeout: cfg.Timeout,
	})
}

// buildProviders constructs the external API adapters. Speech is optional: without an API key
// the text-to-speech endpoint answers 503.
func buildProviders(cfg *config.AppConfig, logger *slog.Logger) (providers, error) {
	gem, err := gemini.New(gemini.Config{
		APIKey:     cfg.Gemini.APIKey,
		BaseURL:    cfg.Gemini.BaseURL,
		Model:      cfg.Gemini.Model,
		Timeout:    cfg.Gemini.Timeout,
		RetryLimit: cfg.Gemini.RetryLimit,
	})
	if err != nil {
		return providers{}, fmt.Errorf("gemini: %w", err)
	}

	mail, err := sendgrid.New(sendgrid.Config{
		APIKey:     cfg.SendGrid.APIKey,
		BaseURL:    cfg.SendGrid.BaseURL,
		ReportFrom: cfg.SendGrid.ReportFrom,
		InviteFrom: cfg.SendGrid.InviteFrom,
		Timeout:    cfg.SendGrid.Timeout,
		RetryLimit: cfg.SendGrid.RetryLimit,
	})
	if err != nil {
		return providers{}, fmt.Errorf("sendgrid: %w", err)
	}

	p := providers{gemini: gem, sendgrid: mail}
	if cfg.Speech.APIKey == "" {
		logger.Warn("speech provider not configured; text-to-speech disabled")
		return p, nil
	}
	p.speech, err = speech.New(speech.Config{
		APIKey:  cfg.Speech.APIKey,
		BaseURL: cfg.Speech.BaseURL,
		Voice:   cfg.Speech.Voice,
		Timeout: cfg.Speech.Timeout,
	})
	if err != nil {
		return providers{}, fmt.Errorf("speech: %w", err)
	}
	return p, nil
}

// NewServices wires the HTTP-facing services over the configured providers.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := BuildObservability(logger, cfg.Observability)

	prov, err := buildProviders(cfg, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	return buildDomainServices(&DomainServicesOptions{
		Config:        cfg,
		Providers:     prov,
		RedisClient:   deps.RedisClient,
		Observability: observability,
		Logger:        logger,
	})
}

// DomainServicesOptions groups the inputs for buildDomainServices.
type DomainServicesOptions struct {
	Config        *config.AppConfig
	Providers     providers
	RedisClient   redis.UniversalClient
	Observability ObservabilityContainer
	Logger        *slog.Logger
}

func buildDomainServices(opts *DomainServicesOptions) (ServiceContainer, error) {
	cfg := opts.Config
	logger := opts.Logger
	metricsSink := opts.Observability.MetricsSink
	notifier := opts.Observability.FailureNotifier

	sessions := data.NewSessionRepo(data.SessionRepoOptions{})
	registry := progress.NewRegistry(progress.RegistryOptions{
		Buffer:            cfg.Pipeline.EventBuffer,
		HeartbeatInterval: cfg.Pipeline.HeartbeatInterval,
		Logger:            logger,
	})

	stager, err := staging.New(staging.Options{Dir: cfg.Staging.Dir})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("open staging directory: %w", err)
	}

	sessionSvc, err := service.NewSessionService(service.SessionServiceOptions{
		Sessions: sessions,
		Links:    &cfg.HTTP,
		Invites:  opts.Providers.sendgrid,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	transcription, err := service.NewTranscriptionService(service.TranscriptionServiceOptions{
		Transcriber: opts.Providers.gemini,
		Progress:    registry,
		Config: service.TranscriptionConfig{
			PollInterval:    cfg.Pipeline.PollInterval,
			MaxPollAttempts: cfg.Pipeline.MaxPollAttempts,
		},
		Logger:  logger,
		Metrics: metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	evaluation, err := service.NewEvaluationService(service.EvaluationServiceOptions{
		Scorer:   opts.Providers.gemini,
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	completion, err := service.NewCompletionService(service.CompletionServiceOptions{
		Sessions: sessions,
		Reports:  opts.Providers.sendgrid,
		Notifier: notifier,
		Logger:   logger,
		Metrics:  metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	pipeline, err := service.NewAnswerPipeline(service.AnswerPipelineOptions{
		Sessions:      sessions,
		Stager:        stager,
		Transcription: transcription,
		Evaluation:    evaluation,
		Completion:    completion,
		Progress:      registry,
		Notifier:      notifier,
		Config:        service.PipelineConfig{MinAudioBytes: cfg.Pipeline.MinAudioBytes},
		Logger:        logger,
		Metrics:       metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	checks := map[string]httpx.HealthChecker{}
	var shared *data.RedisCacheRepo
	if opts.RedisClient != nil {
		shared = data.NewRedisCacheRepo(opts.RedisClient, cfg.Cache.KeyPrefix)
		checks["redis"] = shared
	}

	var promptAudio *service.PromptAudioService
	if opts.Providers.speech != nil {
		svcOpts := service.PromptAudioServiceOptions{
			Synthesizer: opts.Providers.speech,
			Local:       data.NewLocalLRU(data.LocalLRUConfig{Capacity: cfg.Cache.LocalCapacity}),
			Config:      service.PromptAudioConfig{Lang: cfg.Speech.Lang, TTL: cfg.Cache.PromptAudioTTL},
			Logger:      logger,
			Metrics:     metricsSink,
		}
		if shared != nil {
			svcOpts.Shared = shared
		}
		promptAudio, err = service.NewPromptAudioService(svcOpts)
		if err != nil {
			return ServiceContainer{}, err
		}
	}

	return ServiceContainer{
		Sessions:      sessionSvc,
		Pipeline:      pipeline,
		PromptAudio:   promptAudio,
		Progress:      registry,
		HealthChecks:  checks,
		Observability: opts.Observability,
	}, nil
}
