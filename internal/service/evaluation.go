package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/domain/model"
	apperrors "github.com/target/mmk-interviews/internal/errors"
)

// EvaluationServiceOptions groups dependencies for EvaluationService.
type EvaluationServiceOptions struct {
	Scorer   core.Scorer            // Required
	Sessions core.SessionRepository // Required: answers are recorded here
	Logger   *slog.Logger
}

// EvaluationService scores transcribed answers against the employer's traits and records them.
type EvaluationService struct {
	scorer   core.Scorer
	sessions core.SessionRepository
	logger   *slog.Logger
}

// NewEvaluationService constructs a new EvaluationService.
func NewEvaluationService(opts EvaluationServiceOptions) (*EvaluationService, error) {
	if opts.Scorer == nil {
		return nil, errors.New("scorer is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session repository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationService{
		scorer:   opts.Scorer,
		sessions: opts.Sessions,
		logger:   logger.With("component", "evaluation_service"),
	}, nil
}

// Evaluate asks the scorer to rate transcript as an answer to question and validates the reply.
func (s *EvaluationService) Evaluate(
	ctx context.Context,
	question, transcript string,
	traits []string,
) (*model.Evaluation, error) {
	raw, err := s.scorer.Score(ctx, BuildEvaluationPrompt(question, transcript, traits))
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.MapContextError(ctx.Err())
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEvaluation, "score answer")
	}

	eval, err := ParseEvaluation(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "rejected scorer output", "error", err, "output_len", len(raw))
		return nil, err
	}
	return eval, nil
}

// Record appends the answered question to the session.
func (s *EvaluationService) Record(
	ctx context.Context,
	sessionID string,
	answer model.AnsweredQuestion,
) (*model.AppendReceipt, error) {
	receipt, err := s.sessions.AppendResult(ctx, sessionID, answer)
	if err != nil {
		return nil, fmt.Errorf("record answer: %w", err)
	}
	return receipt, nil
}

// BuildEvaluationPrompt renders the scoring instructions for one answer.
func BuildEvaluationPrompt(question, transcript string, traits []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a hiring manager looking for these specific traits: %s.\n\n", strings.Join(traits, ", "))
	b.WriteString("Evaluate the candidate's answer based only on the question and how well it demonstrates those traits.\n\n")
	fmt.Fprintf(&b, "Provide a rating from %d-%d and a brief justification in the feedback.\n", model.MinRating, model.MaxRating)
	b.WriteString("The feedback should specifically mention how the answer did or did not reflect the desired traits.\n\n")
	b.WriteString("Return only a valid JSON object in this exact schema:\n")
	b.WriteString("{\"rating\": 8, \"feedback\": \"This answer showed good Creativity by...\"}\n\n")
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Question: %q\n", question)
	fmt.Fprintf(&b, "Candidate's answer: %q\n", transcript)
	b.WriteString("---\n")
	return b.String()
}

type evaluationReply struct {
	Rating   *model.Rating `json:"rating"`
	Feedback *string       `json:"feedback"`
}

// ParseEvaluation strips markdown fences from raw and decodes it into an Evaluation. Missing
// fields, unknown fields, an out of range or non-numeric rating and blank feedback are rejected.
func ParseEvaluation(raw string) (*model.Evaluation, error) {
	text := strings.ReplaceAll(raw, "```json", "")
	text = strings.TrimSpace(strings.ReplaceAll(text, "```", ""))
	if text == "" {
		return nil, apperrors.Evaluationf("scorer returned an empty reply")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	var reply evaluationReply
	if err := dec.Decode(&reply); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEvaluation, "scorer reply is not a valid evaluation object")
	}
	if dec.More() {
		return nil, apperrors.Evaluationf("scorer reply has trailing content")
	}

	switch {
	case reply.Rating == nil:
		return nil, apperrors.Evaluationf("scorer reply is missing rating")
	case reply.Feedback == nil:
		return nil, apperrors.Evaluationf("scorer reply is missing feedback")
	case !reply.Rating.Valid:
		return nil, apperrors.Evaluationf("rating is not numeric")
	case !reply.Rating.InRange():
		return nil, apperrors.Evaluationf("rating %d is outside %d-%d", reply.Rating.Value, model.MinRating, model.MaxRating)
	}

	feedback := strings.TrimSpace(*reply.Feedback)
	if feedback == "" {
		return nil, apperrors.Evaluationf("feedback is blank")
	}
	return &model.Evaluation{Rating: *reply.Rating, Feedback: feedback}, nil
}
