package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/domain/model"
)

// fileResource is the Files API representation of an uploaded blob.
type fileResource struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	MimeType    string `json:"mimeType"`
	URI         string `json:"uri"`
	State       string `json:"state"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (f fileResource) handle() *model.JobHandle {
	return &model.JobHandle{
		Name:     f.Name,
		URI:      f.URI,
		MimeType: f.MimeType,
		State:    mapState(f.State),
	}
}

// mapState translates Files API states; STATE_UNSPECIFIED and unknown values count as pending.
func mapState(s string) model.JobState {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE":
		return model.JobStateActive
	case "FAILED":
		return model.JobStateFailed
	case "PROCESSING":
		return model.JobStateProcessing
	default:
		return model.JobStatePending
	}
}

// Submit uploads the staged audio with a single raw upload request.
func (c *Client) Submit(ctx context.Context, req core.SubmitAudioRequest) (*model.JobHandle, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, errors.New("audio path is required")
	}
	audio, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("read staged audio: %w", err)
	}
	mimeType := strings.TrimSpace(req.MimeType)
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	h := c.header()
	h.Set("X-Goog-Upload-Protocol", "raw")
	h.Set("Content-Type", mimeType)
	if req.DisplayName != "" {
		h.Set("X-Goog-Upload-File-Name", req.DisplayName)
	}

	resp, err := c.http.Do(ctx, httpRequest(http.MethodPost, c.baseURL+"/upload/"+apiVersion+"/files", h, audio))
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	var out struct {
		File fileResource `json:"file"`
	}
	if err := decode(resp.Body, &out, "upload"); err != nil {
		return nil, err
	}
	if out.File.Name == "" {
		return nil, errors.New("gemini upload returned no file name")
	}
	return out.File.handle(), nil
}

// State fetches the current processing state of an uploaded file and refreshes handle.
func (c *Client) State(ctx context.Context, handle *model.JobHandle) (model.JobState, error) {
	if handle == nil || handle.Name == "" {
		return "", errors.New("job handle is required")
	}
	resp, err := c.http.Do(ctx, httpRequest(http.MethodGet, c.apiURL(handle.Name), c.header(), nil))
	if err != nil {
		return "", fmt.Errorf("get file state: %w", err)
	}

	var file fileResource
	if err := decode(resp.Body, &file, "file"); err != nil {
		return "", err
	}
	state := mapState(file.State)
	handle.State = state
	if file.URI != "" {
		handle.URI = file.URI
	}
	if file.MimeType != "" {
		handle.MimeType = file.MimeType
	}
	return state, nil
}

// Release deletes the uploaded file.
func (c *Client) Release(ctx context.Context, handle *model.JobHandle) error {
	if handle == nil || handle.Name == "" {
		return nil
	}
	if _, err := c.http.Do(ctx, httpRequest(http.MethodDelete, c.apiURL(handle.Name), c.header(), nil)); err != nil {
		return fmt.Errorf("delete file %s: %w", handle.Name, err)
	}
	return nil
}
