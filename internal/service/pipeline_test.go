package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/data"
	"github.com/target/mmk-interviews/internal/domain/model"
	apperrors "github.com/target/mmk-interviews/internal/errors"
	"github.com/target/mmk-interviews/internal/mocks"
	"github.com/target/mmk-interviews/internal/observability/statsd"
	"github.com/target/mmk-interviews/internal/testutil"
)

type pipelineFixture struct {
	repo        *data.SessionRepo
	stager      *mocks.MockAudioStager
	transcriber *mocks.MockTranscriber
	scorer      *mocks.MockScorer
	reports     *mocks.MockReportSender
	events      *eventRecorder
	notifier    *notifierRecorder
	metrics     *statsd.Recorder
	pipeline    *AnswerPipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &pipelineFixture{
		repo:        data.NewSessionRepo(data.SessionRepoOptions{}),
		stager:      mocks.NewMockAudioStager(ctrl),
		transcriber: mocks.NewMockTranscriber(ctrl),
		scorer:      mocks.NewMockScorer(ctrl),
		reports:     mocks.NewMockReportSender(ctrl),
		events:      newEventRecorder(),
		notifier:    &notifierRecorder{},
		metrics:     &statsd.Recorder{},
	}

	transcription, err := NewTranscriptionService(TranscriptionServiceOptions{
		Transcriber: f.transcriber,
		Progress:    f.events,
		Sleep:       instantSleep,
		Metrics:     f.metrics,
	})
	require.NoError(t, err)
	evaluation, err := NewEvaluationService(EvaluationServiceOptions{Scorer: f.scorer, Sessions: f.repo})
	require.NoError(t, err)
	completion, err := NewCompletionService(CompletionServiceOptions{
		Sessions: f.repo,
		Reports:  f.reports,
		Notifier: f.notifier,
		Metrics:  f.metrics,
	})
	require.NoError(t, err)

	f.pipeline, err = NewAnswerPipeline(AnswerPipelineOptions{
		Sessions:      f.repo,
		Stager:        f.stager,
		Transcription: transcription,
		Evaluation:    evaluation,
		Completion:    completion,
		Progress:      f.events,
		Notifier:      f.notifier,
		Metrics:       f.metrics,
	})
	require.NoError(t, err)
	return f
}

func (f *pipelineFixture) createSession(t *testing.T, questions ...string) *model.Session {
	t.Helper()
	b := testutil.NewSessionRequest()
	if len(questions) > 0 {
		b = b.WithQuestions(questions...)
	}
	s, err := f.repo.Create(context.Background(), b.Build())
	require.NoError(t, err)
	return s
}

// expectStaging wires Stage and the matching Remove for n uploads.
func (f *pipelineFixture) expectStaging(n int) {
	staged := &model.StagedAudio{Path: "/staging/answer.webm", MimeType: "audio/webm", Size: 2048}
	f.stager.EXPECT().Stage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req core.StageRequest) (*model.StagedAudio, error) {
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(req.Body)
			return &model.StagedAudio{Path: staged.Path, MimeType: req.MimeType, Size: int64(buf.Len())}, nil
		}).Times(n)
	f.stager.EXPECT().Remove(gomock.Any(), staged.Path).Return(nil).Times(n)
}

// expectTranscription makes every job ACTIVE on the first poll and return text.
func (f *pipelineFixture) expectTranscription(n int, text string) {
	f.transcriber.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, core.SubmitAudioRequest) (*model.JobHandle, error) {
			return testHandle(), nil
		}).Times(n)
	f.transcriber.EXPECT().State(gomock.Any(), gomock.Any()).Return(model.JobStateActive, nil).Times(n)
	f.transcriber.EXPECT().Transcript(gomock.Any(), gomock.Any()).Return(text, nil).Times(n)
	f.transcriber.EXPECT().Release(gomock.Any(), gomock.Any()).Return(nil).Times(n)
}

func uploadFor(sessionID, question string) UploadAnswerRequest {
	return UploadAnswerRequest{
		SessionID: sessionID,
		Question:  question,
		Filename:  "answer.webm",
		MimeType:  "audio/webm",
		Audio:     bytes.Repeat([]byte{0x1a}, 2048),
	}
}

func TestAnswerPipeline_RecordsEvaluation(t *testing.T) {
	f := newPipelineFixture(t)
	s := f.createSession(t)
	f.expectStaging(1)
	f.expectTranscription(1, "I owned the rollout end to end.")
	f.scorer.EXPECT().Score(gomock.Any(), gomock.Any()).Return(`{"rating": 8, "feedback": "Strong ownership."}`, nil)

	eval, err := f.pipeline.ProcessUploadedAnswer(context.Background(), uploadFor(s.ID, "Q1"))
	require.NoError(t, err)
	assert.Equal(t, 8, eval.Rating.Value)
	assert.Equal(t, "Strong ownership.", eval.Feedback)

	results, err := f.repo.Results(context.Background(), s.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Q1", results[0].Question)
	assert.Equal(t, "I owned the rollout end to end.", results[0].Answer)

	events := f.events.For(s.ID)
	require.NotEmpty(t, events)
	assert.Equal(t, model.NewProgressEvent(model.StepUpload, "Uploading audio"), events[0])
	assert.Equal(t, model.NewProgressEvent(model.StepEvaluate, "Evaluating answer"), events[len(events)-1])
	steps := make([]int, len(events))
	for i, ev := range events {
		steps[i] = ev.Step
	}
	assert.IsNonDecreasing(t, steps)
	assert.Empty(t, f.notifier.Payloads())
}

func TestAnswerPipeline_FinalAnswerSendsReport(t *testing.T) {
	f := newPipelineFixture(t)
	s := f.createSession(t, "Only question")
	f.expectStaging(1)
	f.expectTranscription(1, "answer")
	f.scorer.EXPECT().Score(gomock.Any(), gomock.Any()).Return(`{"rating": 6, "feedback": "Fine."}`, nil)
	f.reports.EXPECT().SendReport(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r model.Report) error {
		assert.Equal(t, s.ID, r.SessionID)
		assert.InDelta(t, 6.0, r.AverageRating, 0.0001)
		return nil
	})

	_, err := f.pipeline.ProcessUploadedAnswer(context.Background(), uploadFor(s.ID, "Only question"))
	require.NoError(t, err)
}

func TestAnswerPipeline_ConcurrentFinalAnswersSendOneReport(t *testing.T) {
	f := newPipelineFixture(t)
	s := f.createSession(t)
	f.expectStaging(3)
	f.expectTranscription(3, "answer")
	f.scorer.EXPECT().Score(gomock.Any(), gomock.Any()).Return(`{"rating": 7, "feedback": "ok"}`, nil).Times(3)
	f.reports.EXPECT().SendReport(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.pipeline.ProcessUploadedAnswer(context.Background(), uploadFor(s.ID, "Q3"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	results, err := f.repo.Results(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestAnswerPipeline_ConcurrentDistinctAnswersSendOneReport(t *testing.T) {
	f := newPipelineFixture(t)
	s := f.createSession(t)
	f.expectStaging(3)
	f.expectTranscription(3, "answer")
	f.scorer.EXPECT().Score(gomock.Any(), gomock.Any()).Return(`{"rating": 7, "feedback": "ok"}`, nil).Times(3)
	f.reports.EXPECT().SendReport(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	var wg sync.WaitGroup
	errs := make(chan error, len(s.Questions))
	for _, q := range s.Questions {
		wg.Add(1)
		go func(question string) {
			defer wg.Done()
			_, err := f.pipeline.ProcessUploadedAnswer(context.Background(), uploadFor(s.ID, question))
			errs <- err
		}(q)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	results, err := f.repo.Results(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestAnswerPipeline_ValidationFailuresDoNotStage(t *testing.T) {
	f := newPipelineFixture(t)
	s := f.createSession(t)

	tests := []struct {
		name   string
		mutate func(*UploadAnswerRequest)
		check  func(error) bool
	}{
		{name: "missing session id", mutate: func(r *UploadAnswerRequest) { r.SessionID = "" }, check: apperrors.IsValidation},
		{name: "blank question", mutate: func(r *UploadAnswerRequest) { r.Question = "  " }, check: apperrors.IsValidation},
		{name: "no audio", mutate: func(r *UploadAnswerRequest) { r.Audio = nil }, check: apperrors.IsValidation},
		{name: "audio too small", mutate: func(r *UploadAnswerRequest) { r.Audio = make([]byte, 999) }, check: apperrors.IsValidation},
		{name: "unknown session", mutate: func(r *UploadAnswerRequest) { r.SessionID = "missing" }, check: apperrors.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := uploadFor(s.ID, "Q1")
			tt.mutate(&req)
			_, err := f.pipeline.ProcessUploadedAnswer(context.Background(), req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
	assert.Empty(t, f.notifier.Payloads())
	assert.Empty(t, f.events.For(s.ID))
}

func TestAnswerPipeline_TranscriptionFailureCleansUp(t *testing.T) {
	f := newPipelineFixture(t)
	s := f.createSession(t)
	f.expectStaging(1)
	handle := testHandle()
	f.transcriber.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(handle, nil)
	f.transcriber.EXPECT().State(gomock.Any(), handle).Return(model.JobStateFailed, nil)
	f.transcriber.EXPECT().Release(gomock.Any(), handle).Return(nil)

	_, err := f.pipeline.ProcessUploadedAnswer(context.Background(), uploadFor(s.ID, "Q1"))
	assert.True(t, apperrors.IsTranscriptionFailed(err))

	results, err := f.repo.Results(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	payloads := f.notifier.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "transcribe", payloads[0].Stage)
	assert.Equal(t, "transcription_failed", payloads[0].ErrorClass)
	assert.Equal(t, "2048", payloads[0].Metadata["audio_bytes"])
}

func TestAnswerPipeline_EvaluationFailureRecordsNothing(t *testing.T) {
	f := newPipelineFixture(t)
	s := f.createSession(t)
	f.expectStaging(1)
	f.expectTranscription(1, "answer")
	f.scorer.EXPECT().Score(gomock.Any(), gomock.Any()).Return("I would rate this an eight.", nil)

	_, err := f.pipeline.ProcessUploadedAnswer(context.Background(), uploadFor(s.ID, "Q1"))
	assert.True(t, apperrors.IsEvaluation(err))

	results, err := f.repo.Results(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	payloads := f.notifier.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "evaluate", payloads[0].Stage)
}

func TestAnswerPipeline_StagingFailure(t *testing.T) {
	f := newPipelineFixture(t)
	s := f.createSession(t)
	f.stager.EXPECT().Stage(gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full"))

	_, err := f.pipeline.ProcessUploadedAnswer(context.Background(), uploadFor(s.ID, "Q1"))
	assert.True(t, apperrors.IsInternal(err))

	uploads := 0
	for _, m := range f.metrics.Named("pipeline.stage") {
		if m.Tags["stage"] == "upload" {
			uploads++
			assert.Equal(t, "error", m.Tags["result"])
		}
	}
	assert.Equal(t, 1, uploads)
}

func TestAnswerPipeline_RemoveFailureIsLoggedOnly(t *testing.T) {
	f := newPipelineFixture(t)
	s := f.createSession(t)
	f.stager.EXPECT().Stage(gomock.Any(), gomock.Any()).Return(&model.StagedAudio{Path: "/staging/x.webm"}, nil)
	f.stager.EXPECT().Remove(gomock.Any(), "/staging/x.webm").Return(errors.New("permission denied"))
	f.expectTranscription(1, "answer")
	f.scorer.EXPECT().Score(gomock.Any(), gomock.Any()).Return(`{"rating": 4, "feedback": "thin"}`, nil)

	eval, err := f.pipeline.ProcessUploadedAnswer(context.Background(), uploadFor(s.ID, "Q1"))
	require.NoError(t, err)
	assert.Equal(t, 4, eval.Rating.Value)
}

func TestNewAnswerPipeline_RequiresDeps(t *testing.T) {
	_, err := NewAnswerPipeline(AnswerPipelineOptions{})
	require.Error(t, err)
}
