package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/domain/model"
	apperrors "github.com/target/mmk-interviews/internal/errors"
	obserrors "github.com/target/mmk-interviews/internal/observability/errors"
	"github.com/target/mmk-interviews/internal/observability/metrics"
	"github.com/target/mmk-interviews/internal/observability/notify"
	"github.com/target/mmk-interviews/internal/observability/statsd"
)

// reportTimeout bounds claim and delivery once the upload request may already be gone.
const reportTimeout = 30 * time.Second

// FailureNotifier receives pipeline failures worth alerting on.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, payload notify.FailurePayload)
}

// CompletionServiceOptions groups dependencies for CompletionService.
type CompletionServiceOptions struct {
	Sessions core.SessionRepository // Required
	Reports  core.ReportSender      // Required
	Notifier FailureNotifier        // Optional
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// CompletionService decides when a session has been fully answered and sends its report once.
type CompletionService struct {
	sessions core.SessionRepository
	reports  core.ReportSender
	notifier FailureNotifier
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewCompletionService constructs a new CompletionService.
func NewCompletionService(opts CompletionServiceOptions) (*CompletionService, error) {
	if opts.Sessions == nil {
		return nil, errors.New("session repository is required")
	}
	if opts.Reports == nil {
		return nil, errors.New("report sender is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CompletionService{
		sessions: opts.Sessions,
		reports:  opts.Reports,
		notifier: opts.Notifier,
		logger:   logger.With("component", "completion_service"),
		metrics:  opts.Metrics,
	}, nil
}

// IsComplete reports whether answering question brings the session to its end. A question that
// matches the session's last question completes it; a question text that matches none of the
// session's questions falls back to comparing count with the number of questions.
func IsComplete(session *model.Session, question string, count int) bool {
	if session == nil || len(session.Questions) == 0 {
		return false
	}
	if idx := session.QuestionIndex(question); idx >= 0 {
		return idx == len(session.Questions)-1
	}
	return count == len(session.Questions)
}

// AfterAppend sends the report when receipt completes the session and this caller wins the
// report claim. It returns true when a report was dispatched successfully. Delivery failures are
// logged and forwarded to the failure notifier; they never fail the upload.
func (s *CompletionService) AfterAppend(ctx context.Context, receipt *model.AppendReceipt, question string) bool {
	if receipt == nil || !IsComplete(receipt.Session, question, receipt.Count) {
		return false
	}
	sessionID := receipt.Session.ID

	// report dispatch outlives the upload request; the claim is one-shot
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	won, err := s.sessions.ClaimReport(ctx, sessionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to claim report", "session_id", sessionID, "error", err)
		return false
	}
	if !won {
		s.logger.DebugContext(ctx, "report already claimed", "session_id", sessionID)
		metrics.EmitStage(s.metrics, metrics.StageMetric{Stage: metrics.StageReport, Result: metrics.ResultNoop})
		return false
	}

	report := model.Report{
		SessionID:     sessionID,
		EmployerEmail: receipt.Session.EmployerEmail,
		Results:       receipt.Results,
		AverageRating: model.AverageRating(receipt.Results),
	}

	start := time.Now()
	err = s.reports.SendReport(ctx, report)
	metrics.EmitStage(s.metrics, metrics.StageMetric{
		Stage:    metrics.StageReport,
		Result:   metrics.ResultFor(err),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		deliveryErr := apperrors.Wrapf(err, apperrors.ErrCodeReportDelivery, "deliver report for session %s", sessionID)
		s.logger.ErrorContext(ctx, "report delivery failed",
			"session_id", sessionID,
			"employer_email", report.EmployerEmail,
			"error", deliveryErr,
		)
		if s.notifier != nil {
			s.notifier.NotifyFailure(ctx, notify.FailurePayload{
				SessionID:  sessionID,
				Question:   question,
				Stage:      metrics.StageReport,
				Error:      deliveryErr.Error(),
				ErrorClass: obserrors.Classify(deliveryErr),
				Severity:   notify.SeverityWarning,
			})
		}
		return false
	}

	s.logger.InfoContext(ctx, "report sent",
		"session_id", sessionID,
		"results", len(report.Results),
		"average_rating", report.AverageRating,
	)
	return true
}
