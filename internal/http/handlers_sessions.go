// Package httpx exposes the interview API: session creation, answer uploads, the progress
// stream, prompt audio and reports.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/mmk-interviews/internal/domain/model"
	"github.com/target/mmk-interviews/internal/service"
)

// SessionHandlers serves session creation, question lookup and report data.
type SessionHandlers struct {
	Svc    *service.SessionService
	Logger *slog.Logger
}

// Create handles POST /create-interview.
func (h *SessionHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	links, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, links)
}

// Questions handles GET /get-questions/{id}.
func (h *SessionHandlers) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.Svc.Questions(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

// Report handles GET /get-report-data/{id}.
func (h *SessionHandlers) Report(w http.ResponseWriter, r *http.Request) {
	results, err := h.Svc.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if results.Results == nil {
		results.Results = []model.AnsweredQuestion{}
	}
	WriteJSON(w, http.StatusOK, results)
}
