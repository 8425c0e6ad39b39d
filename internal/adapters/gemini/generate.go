package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/target/mmk-interviews/internal/domain/model"
	"github.com/target/mmk-interviews/internal/httpclient"
)

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Transcript asks the model to transcribe an ACTIVE file. The returned text is trimmed and may be
// empty when the model hears nothing.
func (c *Client) Transcript(ctx context.Context, handle *model.JobHandle) (string, error) {
	if handle == nil || handle.URI == "" {
		return "", errors.New("job handle with file uri is required")
	}
	mimeType := handle.MimeType
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	text, err := c.generate(ctx, generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: TranscriptionPrompt},
				{FileData: &fileData{MimeType: mimeType, FileURI: handle.URI}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", handle.Name, err)
	}
	return strings.TrimSpace(text), nil
}

// Score sends an evaluation prompt and returns the raw model reply.
func (c *Client) Score(ctx context.Context, prompt string) (string, error) {
	temp := 0.2
	text, err := c.generate(ctx, generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:      &temp,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return "", fmt.Errorf("score answer: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("score answer: empty model response")
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	resp, err := c.http.PostJSON(ctx, c.apiURL("models/"+c.model+":generateContent"), c.header(), req)
	if err != nil {
		return "", err
	}

	var out generateResponse
	if err := decode(resp.Body, &out, "generateContent"); err != nil {
		return "", err
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", errors.New("no candidates in model response")
	}

	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

func httpRequest(method, url string, h http.Header, body []byte) httpclient.Request {
	return httpclient.Request{Method: method, URL: url, Header: h, Body: body}
}
