package httpx

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/mmk-interviews/internal/service"
)

// SpeechHandlers serves spoken question prompts.
type SpeechHandlers struct {
	Svc    *service.PromptAudioService // nil when no speech provider is configured
	Logger *slog.Logger
}

type speechRequest struct {
	Text string `json:"text"`
}

// TextToSpeech handles POST /api/text-to-speech and returns audio/mpeg.
func (h *SpeechHandlers) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "unavailable",
			Err:     errors.New("text-to-speech is not configured"),
		})
		return
	}

	var req speechRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	audio, err := h.Svc.Synthesize(r.Context(), req.Text)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, "question.mp3", time.Time{}, bytes.NewReader(audio))
}
