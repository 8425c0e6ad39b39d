package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mmk-interviews/internal/data"
	"github.com/target/mmk-interviews/internal/domain/model"
	"github.com/target/mmk-interviews/internal/mocks"
	"github.com/target/mmk-interviews/internal/observability/notify"
	"github.com/target/mmk-interviews/internal/observability/statsd"
	"github.com/target/mmk-interviews/internal/testutil"
)

type notifierRecorder struct {
	mu       sync.Mutex
	payloads []notify.FailurePayload
}

func (n *notifierRecorder) NotifyFailure(_ context.Context, p notify.FailurePayload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
}

func (n *notifierRecorder) Payloads() []notify.FailurePayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.FailurePayload(nil), n.payloads...)
}

func TestIsComplete(t *testing.T) {
	session := &model.Session{Questions: []string{"Q1", "Q2", "Q3"}}

	tests := []struct {
		name     string
		question string
		count    int
		want     bool
	}{
		{name: "last question", question: "Q3", count: 3, want: true},
		{name: "last question answered out of order", question: "Q3", count: 1, want: true},
		{name: "middle question", question: "Q2", count: 3, want: false},
		{name: "first question with full count", question: "Q1", count: 3, want: false},
		{name: "unmatched text with full count", question: "Q3 ", count: 3, want: true},
		{name: "unmatched text short count", question: "Q3 ", count: 2, want: false},
		{name: "unmatched text extra count", question: "other", count: 4, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsComplete(session, tt.question, tt.count))
		})
	}

	assert.False(t, IsComplete(nil, "Q1", 1))
	assert.False(t, IsComplete(&model.Session{}, "", 0))
}

type completionFixture struct {
	repo     *data.SessionRepo
	reports  *mocks.MockReportSender
	notifier *notifierRecorder
	metrics  *statsd.Recorder
	svc      *CompletionService
}

func newCompletionFixture(t *testing.T) *completionFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &completionFixture{
		repo:     data.NewSessionRepo(data.SessionRepoOptions{}),
		reports:  mocks.NewMockReportSender(ctrl),
		notifier: &notifierRecorder{},
		metrics:  &statsd.Recorder{},
	}
	svc, err := NewCompletionService(CompletionServiceOptions{
		Sessions: f.repo,
		Reports:  f.reports,
		Notifier: f.notifier,
		Metrics:  f.metrics,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestCompletionService_SendsReportWithAverage(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()
	s, err := f.repo.Create(ctx, testutil.NewSessionRequest().WithQuestions("Q1", "Q2").Build())
	require.NoError(t, err)

	_, err = f.repo.AppendResult(ctx, s.ID, testutil.NewAnswer("Q1").WithRating(8).Build())
	require.NoError(t, err)
	receipt, err := f.repo.AppendResult(ctx, s.ID, testutil.NewAnswer("Q2").WithRating(5).Build())
	require.NoError(t, err)

	f.reports.EXPECT().SendReport(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r model.Report) error {
		assert.Equal(t, s.ID, r.SessionID)
		assert.Equal(t, "hiring@example.com", r.EmployerEmail)
		assert.Len(t, r.Results, 2)
		assert.InDelta(t, 6.5, r.AverageRating, 0.0001)
		return nil
	})

	assert.True(t, f.svc.AfterAppend(ctx, receipt, "Q2"))
	// the gate is one-shot
	assert.False(t, f.svc.AfterAppend(ctx, receipt, "Q2"))
}

func TestCompletionService_NotCompleteSkipsClaim(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()
	s, err := f.repo.Create(ctx, testutil.NewSessionRequest().Build())
	require.NoError(t, err)

	receipt, err := f.repo.AppendResult(ctx, s.ID, testutil.NewAnswer("Q1").Build())
	require.NoError(t, err)

	assert.False(t, f.svc.AfterAppend(ctx, receipt, "Q1"))
	claimed, err := f.repo.ClaimReport(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, claimed, "incomplete session must not consume the report claim")
}

func TestCompletionService_FallbackOnTrailingWhitespace(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()
	s, err := f.repo.Create(ctx, testutil.NewSessionRequest().Build())
	require.NoError(t, err)

	_, err = f.repo.AppendResult(ctx, s.ID, testutil.NewAnswer("Q1").Build())
	require.NoError(t, err)
	_, err = f.repo.AppendResult(ctx, s.ID, testutil.NewAnswer("Q2").Build())
	require.NoError(t, err)
	receipt, err := f.repo.AppendResult(ctx, s.ID, testutil.NewAnswer("Q3 ").Build())
	require.NoError(t, err)

	f.reports.EXPECT().SendReport(gomock.Any(), gomock.Any()).Return(nil)
	assert.True(t, f.svc.AfterAppend(ctx, receipt, "Q3 "))
}

func TestCompletionService_ConcurrentFinalAnswersSendOneReport(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()
	s, err := f.repo.Create(ctx, testutil.NewSessionRequest().Build())
	require.NoError(t, err)

	f.reports.EXPECT().SendReport(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			receipt, appendErr := f.repo.AppendResult(ctx, s.ID, testutil.NewAnswer("Q3").Build())
			if appendErr != nil {
				return
			}
			f.svc.AfterAppend(ctx, receipt, "Q3")
		}()
	}
	wg.Wait()

	results, err := f.repo.Results(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Len(t, f.metrics.Named("pipeline.stage"), 3)
}

func TestCompletionService_ConcurrentDistinctAnswersSendOneReport(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()
	const sessions = 20

	var mu sync.Mutex
	sent := make(map[string]int)
	f.reports.EXPECT().SendReport(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r model.Report) error {
		mu.Lock()
		sent[r.SessionID]++
		mu.Unlock()
		return nil
	}).Times(sessions)

	for i := 0; i < sessions; i++ {
		s, err := f.repo.Create(ctx, testutil.NewSessionRequest().Build())
		require.NoError(t, err)

		var wg sync.WaitGroup
		for _, q := range s.Questions {
			wg.Add(1)
			go func(question string) {
				defer wg.Done()
				receipt, appendErr := f.repo.AppendResult(ctx, s.ID, testutil.NewAnswer(question).Build())
				if appendErr != nil {
					return
				}
				f.svc.AfterAppend(ctx, receipt, question)
			}(q)
		}
		wg.Wait()

		results, err := f.repo.Results(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, results, 3)
		assert.Equal(t, 1, sent[s.ID])
	}
}

func TestCompletionService_ReportOutlivesCanceledRequest(t *testing.T) {
	f := newCompletionFixture(t)
	s, err := f.repo.Create(context.Background(), testutil.NewSessionRequest().WithQuestions("Only").Build())
	require.NoError(t, err)
	receipt, err := f.repo.AppendResult(context.Background(), s.ID, testutil.NewAnswer("Only").Build())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.reports.EXPECT().SendReport(gomock.Any(), gomock.Any()).DoAndReturn(func(sendCtx context.Context, _ model.Report) error {
		assert.NoError(t, sendCtx.Err())
		_, hasDeadline := sendCtx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})

	assert.True(t, f.svc.AfterAppend(ctx, receipt, "Only"))
}

func TestCompletionService_DeliveryFailureIsNotified(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()
	s, err := f.repo.Create(ctx, testutil.NewSessionRequest().WithQuestions("Only").Build())
	require.NoError(t, err)
	receipt, err := f.repo.AppendResult(ctx, s.ID, testutil.NewAnswer("Only").Build())
	require.NoError(t, err)

	f.reports.EXPECT().SendReport(gomock.Any(), gomock.Any()).Return(errors.New("sendgrid: 401"))

	assert.False(t, f.svc.AfterAppend(ctx, receipt, "Only"))

	payloads := f.notifier.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, s.ID, payloads[0].SessionID)
	assert.Equal(t, "report", payloads[0].Stage)
	assert.Equal(t, "report_delivery", payloads[0].ErrorClass)
	assert.Equal(t, notify.SeverityWarning, payloads[0].Severity)

	// the claim stays taken; a retry does not resend
	assert.False(t, f.svc.AfterAppend(ctx, receipt, "Only"))
}
