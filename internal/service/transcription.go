package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/domain/model"
	"github.com/target/mmk-interviews/internal/domain/progress"
	apperrors "github.com/target/mmk-interviews/internal/errors"
	"github.com/target/mmk-interviews/internal/observability/metrics"
	"github.com/target/mmk-interviews/internal/observability/statsd"
)

// Transcription polling defaults.
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultMaxPollAttempts = 10
	releaseTimeout         = 10 * time.Second
)

// TranscriptionConfig holds the polling budget.
type TranscriptionConfig struct {
	PollInterval    time.Duration
	MaxPollAttempts int
}

// TranscriptionServiceOptions groups dependencies for TranscriptionService.
type TranscriptionServiceOptions struct {
	Transcriber core.Transcriber   // Required
	Progress    progress.Publisher // Optional: progress events for the session observer
	Config      TranscriptionConfig
	Sleep       Sleeper // Optional: defaults to ContextSleep
	Logger      *slog.Logger
	Metrics     statsd.Sink
}

// TranscriptionService drives one external transcription job per upload to a terminal state.
type TranscriptionService struct {
	transcriber core.Transcriber
	progress    progress.Publisher
	interval    time.Duration
	maxAttempts int
	sleep       Sleeper
	logger      *slog.Logger
	metrics     statsd.Sink
}

// NewTranscriptionService constructs a new TranscriptionService.
func NewTranscriptionService(opts TranscriptionServiceOptions) (*TranscriptionService, error) {
	if opts.Transcriber == nil {
		return nil, errors.New("transcriber is required")
	}

	interval := opts.Config.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxAttempts := opts.Config.MaxPollAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxPollAttempts
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TranscriptionService{
		transcriber: opts.Transcriber,
		progress:    opts.Progress,
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       sleep,
		logger:      logger.With("component", "transcription_service"),
		metrics:     opts.Metrics,
	}, nil
}

// transcriptionPhase is the per-upload coordinator state.
type transcriptionPhase string

const (
	phaseSubmitted transcriptionPhase = "SUBMITTED"
	phasePolling   transcriptionPhase = "POLLING"
	phaseActive    transcriptionPhase = "ACTIVE"
	phaseFailed    transcriptionPhase = "FAILED"
	phaseTimedOut  transcriptionPhase = "TIMED_OUT"
)

// isValidPhaseTransition enforces the allowed coordinator edges.
func isValidPhaseTransition(from, to transcriptionPhase) bool {
	switch from {
	case phaseSubmitted:
		return to == phasePolling
	case phasePolling:
		return to == phaseActive || to == phaseFailed || to == phaseTimedOut
	default:
		return false
	}
}

type transcriptionRun struct {
	sessionID string
	phase     transcriptionPhase
	attempts  int
	handle    *model.JobHandle
}

func (r *transcriptionRun) advance(to transcriptionPhase) error {
	if !isValidPhaseTransition(r.phase, to) {
		return apperrors.Internalf("invalid transcription transition: %s -> %s", r.phase, to)
	}
	r.phase = to
	return nil
}

// TranscribeRequest groups the inputs for Transcribe.
type TranscribeRequest struct {
	SessionID   string
	Audio       *model.StagedAudio
	DisplayName string
}

// Transcribe submits the staged audio, polls the job until it is ACTIVE, FAILED or out of
// attempts, and returns the transcript. An empty transcript becomes model.NoSpeechDetected.
// The external job is released on every exit path once it exists.
func (s *TranscriptionService) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	if req.Audio == nil {
		return "", apperrors.Validation("staged audio is required")
	}

	run := &transcriptionRun{sessionID: req.SessionID, phase: phaseSubmitted}
	handle, err := s.transcriber.Submit(ctx, core.SubmitAudioRequest{
		Path:        req.Audio.Path,
		MimeType:    req.Audio.MimeType,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", apperrors.MapContextError(ctx.Err())
		}
		return "", apperrors.Wrap(err, apperrors.ErrCodeTranscriptionSubmit, "submit audio for transcription")
	}
	if handle == nil {
		return "", &apperrors.AppError{Code: apperrors.ErrCodeTranscriptionSubmit, Message: "transcriber returned no job handle"}
	}
	run.handle = handle
	defer s.release(ctx, run)

	s.publish(req.SessionID, model.NewProgressEvent(model.StepProcessing, "Processing audio file"))
	if err := run.advance(phasePolling); err != nil {
		return "", err
	}

	if err := s.poll(ctx, run); err != nil {
		return "", err
	}
	metrics.EmitPollAttempts(s.metrics, run.attempts, string(run.phase))

	switch run.phase {
	case phaseFailed:
		return "", apperrors.TranscriptionJobFailed(handle.Name)
	case phaseTimedOut:
		return "", apperrors.TranscriptionTimeout(run.attempts)
	}

	s.publish(req.SessionID, model.NewProgressEvent(model.StepTranscribe, "Converting speech to text"))
	text, err := s.transcriber.Transcript(ctx, handle)
	if err != nil {
		if ctx.Err() != nil {
			return "", apperrors.MapContextError(ctx.Err())
		}
		return "", apperrors.Wrapf(err, apperrors.ErrCodeInternal, "fetch transcript for %s", handle.Name)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = model.NoSpeechDetected
	}
	return text, nil
}

// poll moves run from POLLING to a terminal phase. Transport errors and cancellation end the
// upload immediately and are returned.
func (s *TranscriptionService) poll(ctx context.Context, run *transcriptionRun) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := s.sleep(ctx, s.interval); err != nil {
			return apperrors.MapContextError(err)
		}

		state, err := s.transcriber.State(ctx, run.handle)
		if err != nil {
			if ctx.Err() != nil {
				return apperrors.MapContextError(ctx.Err())
			}
			return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "poll transcription job %s", run.handle.Name)
		}
		run.attempts = attempt
		run.handle.State = state
		s.publish(run.sessionID, model.PollAttemptEvent(attempt, s.maxAttempts))

		switch state {
		case model.JobStateActive:
			return run.advance(phaseActive)
		case model.JobStateFailed:
			return run.advance(phaseFailed)
		case model.JobStatePending, model.JobStateProcessing:
		default:
			s.logger.WarnContext(ctx, "unknown transcription job state, continuing to poll",
				"job", run.handle.Name,
				"state", state,
			)
		}
	}

	run.handle.State = model.JobStateTimedOut
	return run.advance(phaseTimedOut)
}

// release deletes the external job. Failures are logged and never replace the upload's outcome.
func (s *TranscriptionService) release(ctx context.Context, run *transcriptionRun) {
	if run.handle == nil {
		return
	}
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := s.transcriber.Release(relCtx, run.handle); err != nil {
		s.logger.WarnContext(ctx, "failed to release transcription job",
			"job", run.handle.Name,
			"phase", run.phase,
			"error", err,
		)
		return
	}
	s.logger.DebugContext(ctx, "released transcription job", "job", run.handle.Name, "phase", run.phase)
}

func (s *TranscriptionService) publish(sessionID string, ev model.ProgressEvent) {
	if s.progress == nil || sessionID == "" {
		return
	}
	s.progress.Publish(sessionID, ev)
}
