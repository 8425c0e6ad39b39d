package httpx

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mmk-interviews/internal/adapters/staging"
	"github.com/target/mmk-interviews/internal/data"
	"github.com/target/mmk-interviews/internal/domain/progress"
	"github.com/target/mmk-interviews/internal/mocks"
	"github.com/target/mmk-interviews/internal/service"
)

type staticLinks struct{}

func (staticLinks) InterviewURL(id string) string { return "http://localhost:5173/session/" + id }
func (staticLinks) ReportURL(id string) string    { return "http://localhost:5173/results/" + id }

// apiFixture wires the real services over in-memory storage, a temp staging dir and gomock
// providers.
type apiFixture struct {
	repo        *data.SessionRepo
	registry    *progress.Registry
	transcriber *mocks.MockTranscriber
	scorer      *mocks.MockScorer
	reports     *mocks.MockReportSender
	invites     *mocks.MockInviteSender
	synth       *mocks.MockSpeechSynthesizer
	sessions    *service.SessionService
	handler     http.Handler
}

type fixtureOptions struct {
	maxUploadBytes int64
	withoutSpeech  bool
	heartbeat      time.Duration
	healthChecks   map[string]HealthChecker
}

func newAPIFixture(t *testing.T, opts fixtureOptions) *apiFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &apiFixture{
		repo:        data.NewSessionRepo(data.SessionRepoOptions{}),
		registry:    progress.NewRegistry(progress.RegistryOptions{HeartbeatInterval: opts.heartbeat, Logger: logger}),
		transcriber: mocks.NewMockTranscriber(ctrl),
		scorer:      mocks.NewMockScorer(ctrl),
		reports:     mocks.NewMockReportSender(ctrl),
		invites:     mocks.NewMockInviteSender(ctrl),
		synth:       mocks.NewMockSpeechSynthesizer(ctrl),
	}
	t.Cleanup(f.registry.StopAll)

	stager, err := staging.New(staging.Options{Dir: filepath.Join(t.TempDir(), "uploads")})
	require.NoError(t, err)

	f.sessions, err = service.NewSessionService(service.SessionServiceOptions{
		Sessions: f.repo, Links: staticLinks{}, Invites: f.invites, Logger: logger,
	})
	require.NoError(t, err)

	transcription, err := service.NewTranscriptionService(service.TranscriptionServiceOptions{
		Transcriber: f.transcriber,
		Progress:    f.registry,
		Sleep:       func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
		Logger:      logger,
	})
	require.NoError(t, err)
	evaluation, err := service.NewEvaluationService(service.EvaluationServiceOptions{
		Scorer: f.scorer, Sessions: f.repo, Logger: logger,
	})
	require.NoError(t, err)
	completion, err := service.NewCompletionService(service.CompletionServiceOptions{
		Sessions: f.repo, Reports: f.reports, Logger: logger,
	})
	require.NoError(t, err)
	pipeline, err := service.NewAnswerPipeline(service.AnswerPipelineOptions{
		Sessions:      f.repo,
		Stager:        stager,
		Transcription: transcription,
		Evaluation:    evaluation,
		Completion:    completion,
		Progress:      f.registry,
		Logger:        logger,
	})
	require.NoError(t, err)

	var promptAudio *service.PromptAudioService
	if !opts.withoutSpeech {
		promptAudio, err = service.NewPromptAudioService(service.PromptAudioServiceOptions{
			Synthesizer: f.synth,
			Local:       data.NewLocalLRU(data.LocalLRUConfig{Capacity: 4}),
			Logger:      logger,
		})
		require.NoError(t, err)
	}

	f.handler = NewRouter(RouterServices{
		Sessions:           f.sessions,
		Pipeline:           pipeline,
		Progress:           f.registry,
		PromptAudio:        promptAudio,
		HealthChecks:       opts.healthChecks,
		MaxUploadBytes:     opts.maxUploadBytes,
		CORSOrigins:        []string{"http://localhost:5173"},
		CompressionEnabled: true,
		CompressionLevel:   5,
		Logger:             logger,
	})
	return f
}

type uploadForm struct {
	fields   map[string]string
	filename string
	mimeType string
	audio    []byte
}

func multipartBody(t *testing.T, form uploadForm) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range form.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if form.audio != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+form.filename+`"`)
		if form.mimeType != "" {
			h.Set("Content-Type", form.mimeType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(form.audio)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
