package httpx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/target/mmk-interviews/internal/service"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// UploadHandlers serves answer uploads.
type UploadHandlers struct {
	Pipeline       *service.AnswerPipeline
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Upload handles POST /api/upload. The multipart form carries the recording in "file", the
// question in "questionText" and the session in "interviewId" (or "sessionId").
func (h *UploadHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeFormError(w, err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: errors.New("no file part")})
		return
	}
	audio, err := readPart(file)
	if err != nil {
		writeFormError(w, err)
		return
	}

	sessionID := strings.TrimSpace(r.FormValue("interviewId"))
	if sessionID == "" {
		sessionID = strings.TrimSpace(r.FormValue("sessionId"))
	}

	eval, err := h.Pipeline.ProcessUploadedAnswer(r.Context(), service.UploadAnswerRequest{
		SessionID: sessionID,
		Question:  r.FormValue("questionText"),
		Filename:  header.Filename,
		MimeType:  partMimeType(header),
		Audio:     audio,
	})
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, eval)
}

func readPart(file multipart.File) ([]byte, error) {
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	return audio, nil
}

func partMimeType(header *multipart.FileHeader) string {
	if ct := strings.TrimSpace(header.Header.Get("Content-Type")); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return "audio/webm"
}

func writeFormError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteError(w, ErrorParams{
			Code:    http.StatusRequestEntityTooLarge,
			ErrCode: "too_large",
			Err:     fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit),
		})
		return
	}
	WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
}
