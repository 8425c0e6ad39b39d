package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/target/mmk-interviews/internal/domain/progress"
)

// StatusHandlers streams upload progress to the candidate's browser.
type StatusHandlers struct {
	Progress *progress.Registry
	Logger   *slog.Logger
}

// Stream handles GET /api/status/{id} as a server-sent event stream. Each progress event is sent
// as "data: <json>"; idle periods produce "data: ping". The stream ends when the client goes
// away or the registry shuts down.
func (h *StatusHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("id"))
	if sessionID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: errors.New("interview id is required")})
		return
	}

	rc := http.NewResponseController(w)
	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.Logger.WarnContext(r.Context(), "event stream flush unsupported", "error", err)
	}

	stream := h.Progress.Subscribe(sessionID)
	defer stream.Close()

	ctx := r.Context()
	for {
		msg, err := stream.Next(ctx)
		if err != nil {
			if !errors.Is(err, progress.ErrStreamClosed) && ctx.Err() == nil {
				h.Logger.WarnContext(ctx, "event stream ended", "session_id", sessionID, "error", err)
			}
			return
		}

		frame, err := encodeFrame(msg)
		if err != nil {
			h.Logger.ErrorContext(ctx, "encode progress event", "session_id", sessionID, "error", err)
			continue
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func encodeFrame(msg progress.Message) ([]byte, error) {
	if msg.Heartbeat {
		return []byte("data: ping\n\n"), nil
	}
	payload, err := json.Marshal(msg.Event)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "data: %s\n\n", payload), nil
}
