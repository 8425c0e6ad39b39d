package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/domain/model"
	"github.com/target/mmk-interviews/internal/domain/progress"
	apperrors "github.com/target/mmk-interviews/internal/errors"
	obserrors "github.com/target/mmk-interviews/internal/observability/errors"
	"github.com/target/mmk-interviews/internal/observability/metrics"
	"github.com/target/mmk-interviews/internal/observability/notify"
	"github.com/target/mmk-interviews/internal/observability/statsd"
)

// DefaultMinAudioBytes rejects uploads too small to hold any speech.
const DefaultMinAudioBytes = 1000

const cleanupTimeout = 5 * time.Second

// PipelineConfig holds the answer pipeline tunables.
type PipelineConfig struct {
	MinAudioBytes int
}

// AnswerPipelineOptions groups dependencies for AnswerPipeline.
type AnswerPipelineOptions struct {
	Sessions      core.SessionRepository // Required
	Stager        core.AudioStager       // Required
	Transcription *TranscriptionService  // Required
	Evaluation    *EvaluationService     // Required
	Completion    *CompletionService     // Required
	Progress      progress.Publisher     // Optional
	Notifier      FailureNotifier        // Optional
	Config        PipelineConfig
	Logger        *slog.Logger
	Metrics       statsd.Sink
}

// AnswerPipeline runs one uploaded answer from raw audio to a recorded evaluation.
type AnswerPipeline struct {
	sessions      core.SessionRepository
	stager        core.AudioStager
	transcription *TranscriptionService
	evaluation    *EvaluationService
	completion    *CompletionService
	progress      progress.Publisher
	notifier      FailureNotifier
	minAudioBytes int
	logger        *slog.Logger
	metrics       statsd.Sink
}

// NewAnswerPipeline constructs a new AnswerPipeline.
func NewAnswerPipeline(opts AnswerPipelineOptions) (*AnswerPipeline, error) {
	switch {
	case opts.Sessions == nil:
		return nil, errors.New("session repository is required")
	case opts.Stager == nil:
		return nil, errors.New("audio stager is required")
	case opts.Transcription == nil:
		return nil, errors.New("transcription service is required")
	case opts.Evaluation == nil:
		return nil, errors.New("evaluation service is required")
	case opts.Completion == nil:
		return nil, errors.New("completion service is required")
	}

	minBytes := opts.Config.MinAudioBytes
	if minBytes <= 0 {
		minBytes = DefaultMinAudioBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AnswerPipeline{
		sessions:      opts.Sessions,
		stager:        opts.Stager,
		transcription: opts.Transcription,
		evaluation:    opts.Evaluation,
		completion:    opts.Completion,
		progress:      opts.Progress,
		notifier:      opts.Notifier,
		minAudioBytes: minBytes,
		logger:        logger.With("component", "answer_pipeline"),
		metrics:       opts.Metrics,
	}, nil
}

// UploadAnswerRequest is one recorded answer as received from the candidate.
type UploadAnswerRequest struct {
	SessionID string
	Question  string
	Filename  string
	MimeType  string
	Audio     []byte
}

// ProcessUploadedAnswer stages, transcribes, evaluates and records one answer, then checks
// whether the session is complete. The staged file is removed on every exit path.
func (p *AnswerPipeline) ProcessUploadedAnswer(ctx context.Context, req UploadAnswerRequest) (*model.Evaluation, error) {
	start := time.Now()
	stage := metrics.StageUpload

	eval, err := p.process(ctx, req, &stage)

	metrics.EmitStage(p.metrics, metrics.StageMetric{
		Stage:    metrics.StageUpload,
		Result:   metrics.ResultFor(err),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		p.reportFailure(ctx, req, stage, err)
		return nil, err
	}
	return eval, nil
}

// process runs the stages in order; *stage tracks the one in flight for failure reporting.
func (p *AnswerPipeline) process(ctx context.Context, req UploadAnswerRequest, stage *string) (*model.Evaluation, error) {
	session, err := p.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	*stage = metrics.StageStage
	var staged *model.StagedAudio
	err = p.timed(metrics.StageStage, func() error {
		var stageErr error
		staged, stageErr = p.stager.Stage(ctx, core.StageRequest{
			Filename: req.Filename,
			MimeType: req.MimeType,
			Body:     bytes.NewReader(req.Audio),
		})
		return stageErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.MapContextError(ctx.Err())
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "stage uploaded audio")
	}
	defer p.removeStaged(ctx, staged)

	p.publish(req.SessionID, model.NewProgressEvent(model.StepUpload, "Uploading audio"))

	*stage = metrics.StageTranscribe
	var transcript string
	err = p.timed(metrics.StageTranscribe, func() error {
		var trErr error
		transcript, trErr = p.transcription.Transcribe(ctx, TranscribeRequest{
			SessionID:   req.SessionID,
			Audio:       staged,
			DisplayName: req.Filename,
		})
		return trErr
	})
	if err != nil {
		return nil, err
	}

	p.publish(req.SessionID, model.NewProgressEvent(model.StepEvaluate, "Evaluating answer"))

	*stage = metrics.StageEvaluate
	var eval *model.Evaluation
	err = p.timed(metrics.StageEvaluate, func() error {
		var evalErr error
		eval, evalErr = p.evaluation.Evaluate(ctx, req.Question, transcript, session.Traits)
		return evalErr
	})
	if err != nil {
		return nil, err
	}

	*stage = metrics.StageRecord
	var receipt *model.AppendReceipt
	err = p.timed(metrics.StageRecord, func() error {
		var recErr error
		receipt, recErr = p.evaluation.Record(ctx, req.SessionID, model.AnsweredQuestion{
			Question:   req.Question,
			Answer:     transcript,
			Evaluation: *eval,
		})
		return recErr
	})
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "answer recorded",
		"session_id", req.SessionID,
		"answers", receipt.Count,
		"questions", len(receipt.Session.Questions),
		"rating", eval.Rating.Value,
	)

	p.completion.AfterAppend(ctx, receipt, req.Question)
	return eval, nil
}

func (p *AnswerPipeline) validate(ctx context.Context, req UploadAnswerRequest) (*model.Session, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, apperrors.ValidationField("interviewId", "interview id is required")
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, apperrors.ValidationField("questionText", "question text is required")
	}
	if len(req.Audio) == 0 {
		return nil, apperrors.ValidationField("file", "audio file is required")
	}
	if len(req.Audio) < p.minAudioBytes {
		return nil, apperrors.ValidationField("file", "uploaded audio file is empty or corrupted")
	}

	session, err := p.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, apperrors.MapContextError(err)
	}
	return session, nil
}

func (p *AnswerPipeline) timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.EmitStage(p.metrics, metrics.StageMetric{
		Stage:    stage,
		Result:   metrics.ResultFor(err),
		Duration: time.Since(start),
		Err:      err,
	})
	return err
}

func (p *AnswerPipeline) removeStaged(ctx context.Context, staged *model.StagedAudio) {
	if staged == nil {
		return
	}
	rmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := p.stager.Remove(rmCtx, staged.Path); err != nil {
		p.logger.WarnContext(ctx, "failed to remove staged audio", "path", staged.Path, "error", err)
	}
}

func (p *AnswerPipeline) reportFailure(ctx context.Context, req UploadAnswerRequest, stage string, err error) {
	class := obserrors.Classify(err)
	level := slog.LevelError
	if apperrors.IsValidation(err) || apperrors.IsNotFound(err) || apperrors.IsCanceled(err) {
		level = slog.LevelWarn
	}
	p.logger.Log(ctx, level, "answer pipeline failed",
		"session_id", req.SessionID,
		"stage", stage,
		"error_class", class,
		"error", err,
	)

	// client mistakes are not alert-worthy
	if p.notifier == nil || apperrors.IsValidation(err) || apperrors.IsNotFound(err) {
		return
	}
	p.notifier.NotifyFailure(ctx, notify.FailurePayload{
		SessionID:  req.SessionID,
		Question:   req.Question,
		Stage:      stage,
		Error:      err.Error(),
		ErrorClass: class,
		Metadata: map[string]string{
			"filename":    req.Filename,
			"mime_type":   req.MimeType,
			"audio_bytes": strconv.Itoa(len(req.Audio)),
		},
	})
}

func (p *AnswerPipeline) publish(sessionID string, ev model.ProgressEvent) {
	if p.progress == nil {
		return
	}
	p.progress.Publish(sessionID, ev)
}
