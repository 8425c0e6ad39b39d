package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/mmk-interviews/internal/domain/progress"
	"github.com/target/mmk-interviews/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions    *service.SessionService
	Pipeline    *service.AnswerPipeline
	Progress    *progress.Registry
	PromptAudio *service.PromptAudioService // Optional
	// HealthChecks are probed by /healthz, e.g. the Redis cache.
	HealthChecks map[string]HealthChecker

	MaxUploadBytes     int64
	CORSOrigins        []string
	CompressionEnabled bool
	CompressionLevel   int
	Logger             *slog.Logger
}

// NewRouter creates the HTTP handler with routes and middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	sessions := &SessionHandlers{Svc: services.Sessions, Logger: logger}
	mux.HandleFunc("POST /create-interview", sessions.Create)
	mux.HandleFunc("GET /get-questions/{id}", sessions.Questions)
	mux.HandleFunc("GET /get-report-data/{id}", sessions.Report)

	uploads := &UploadHandlers{Pipeline: services.Pipeline, MaxUploadBytes: services.MaxUploadBytes, Logger: logger}
	mux.HandleFunc("POST /api/upload", uploads.Upload)

	status := &StatusHandlers{Progress: services.Progress, Logger: logger}
	mux.HandleFunc("GET /api/status/{id}", status.Stream)

	speech := &SpeechHandlers{Svc: services.PromptAudio, Logger: logger}
	mux.HandleFunc("POST /api/text-to-speech", speech.TextToSpeech)

	health := &HealthHandlers{Checks: services.HealthChecks, Logger: logger}
	mux.HandleFunc("GET /healthz", health.Health)
	mux.HandleFunc("HEAD /healthz", health.Health)

	var h http.Handler = mux
	if services.CompressionEnabled {
		h = Compression(CompressionConfig{Level: services.CompressionLevel, Logger: logger})(h)
	}
	h = CORS(services.CORSOrigins)(h)
	h = Logging(logger)(h)
	return Recover(logger)(h)
}
