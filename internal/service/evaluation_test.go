package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mmk-interviews/internal/domain/model"
	apperrors "github.com/target/mmk-interviews/internal/errors"
	"github.com/target/mmk-interviews/internal/mocks"
	"github.com/target/mmk-interviews/internal/testutil"
)

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantRating   int
		wantFeedback string
		wantErr      bool
	}{
		{name: "bare object", raw: `{"rating": 8, "feedback": "Good ownership."}`, wantRating: 8, wantFeedback: "Good ownership."},
		{name: "json fence", raw: "```json\n{\"rating\": 6, \"feedback\": \"ok\"}\n```", wantRating: 6, wantFeedback: "ok"},
		{name: "plain fence", raw: "```\n{\"rating\": 10, \"feedback\": \"great\"}\n```", wantRating: 10, wantFeedback: "great"},
		{name: "numeric string rating", raw: `{"rating": "7", "feedback": "fine"}`, wantRating: 7, wantFeedback: "fine"},
		{name: "feedback trimmed", raw: `{"rating": 5, "feedback": "  meh  "}`, wantRating: 5, wantFeedback: "meh"},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "prose", raw: "The candidate did well.", wantErr: true},
		{name: "missing rating", raw: `{"feedback": "x"}`, wantErr: true},
		{name: "missing feedback", raw: `{"rating": 5}`, wantErr: true},
		{name: "null rating", raw: `{"rating": null, "feedback": "x"}`, wantErr: true},
		{name: "rating too high", raw: `{"rating": 11, "feedback": "x"}`, wantErr: true},
		{name: "rating zero", raw: `{"rating": 0, "feedback": "x"}`, wantErr: true},
		{name: "non-numeric rating", raw: `{"rating": "high", "feedback": "x"}`, wantErr: true},
		{name: "fractional rating", raw: `{"rating": 7.5, "feedback": "x"}`, wantErr: true},
		{name: "blank feedback", raw: `{"rating": 5, "feedback": "  "}`, wantErr: true},
		{name: "unknown field", raw: `{"rating": 5, "feedback": "x", "score": 3}`, wantErr: true},
		{name: "trailing object", raw: `{"rating": 5, "feedback": "x"} {"rating": 6, "feedback": "y"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvaluation(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsEvaluation(err), "want evaluation error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRating, got.Rating.Value)
			assert.True(t, got.Rating.Valid)
			assert.Equal(t, tt.wantFeedback, got.Feedback)
		})
	}
}

func TestBuildEvaluationPrompt(t *testing.T) {
	prompt := BuildEvaluationPrompt("Tell me about a failure.", "I shipped late once.", []string{"ownership", "candor"})

	assert.Contains(t, prompt, "ownership, candor")
	assert.Contains(t, prompt, "rating from 1-10")
	assert.Contains(t, prompt, `Question: "Tell me about a failure."`)
	assert.Contains(t, prompt, `Candidate's answer: "I shipped late once."`)
	assert.Contains(t, prompt, `"rating": 8`)
}

func TestEvaluationService_Evaluate(t *testing.T) {
	ctrl := gomock.NewController(t)
	scorer := mocks.NewMockScorer(ctrl)
	sessions := mocks.NewMockSessionRepository(ctrl)
	svc, err := NewEvaluationService(EvaluationServiceOptions{Scorer: scorer, Sessions: sessions})
	require.NoError(t, err)

	scorer.EXPECT().Score(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, "communication, ownership")
		return "```json\n{\"rating\": 9, \"feedback\": \"Clear ownership.\"}\n```", nil
	})

	got, err := svc.Evaluate(context.Background(), "Q1", "answer", []string{"communication", "ownership"})
	require.NoError(t, err)
	assert.Equal(t, model.NewRating(9), got.Rating)
	assert.Equal(t, "Clear ownership.", got.Feedback)
}

func TestEvaluationService_ScorerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	scorer := mocks.NewMockScorer(ctrl)
	svc, err := NewEvaluationService(EvaluationServiceOptions{Scorer: scorer, Sessions: mocks.NewMockSessionRepository(ctrl)})
	require.NoError(t, err)

	scorer.EXPECT().Score(gomock.Any(), gomock.Any()).Return("", errors.New("quota exceeded"))

	_, err = svc.Evaluate(context.Background(), "Q1", "answer", []string{"grit"})
	assert.True(t, apperrors.IsEvaluation(err))
}

func TestEvaluationService_Record(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockSessionRepository(ctrl)
	svc, err := NewEvaluationService(EvaluationServiceOptions{Scorer: mocks.NewMockScorer(ctrl), Sessions: sessions})
	require.NoError(t, err)

	answer := testutil.NewAnswer("Q1").Build()
	sessions.EXPECT().AppendResult(gomock.Any(), "s1", answer).Return(&model.AppendReceipt{Count: 1}, nil)
	receipt, err := svc.Record(context.Background(), "s1", answer)
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Count)

	sessions.EXPECT().AppendResult(gomock.Any(), "gone", answer).Return(nil, apperrors.SessionNotFound("gone"))
	_, err = svc.Record(context.Background(), "gone", answer)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestNewEvaluationService_RequiresDeps(t *testing.T) {
	_, err := NewEvaluationService(EvaluationServiceOptions{})
	require.Error(t, err)
}
