// Package speech renders question prompts to MP3 through the Google Cloud Text-to-Speech REST API.
package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/httpclient"
)

// DefaultBaseURL is the public Text-to-Speech API root.
const DefaultBaseURL = "https://texttospeech.googleapis.com"

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	// Voice optionally pins a voice name such as "en-US-Neural2-C".
	Voice   string
	Timeout time.Duration
	HTTP    *httpclient.Client
}

// Client implements core.SpeechSynthesizer.
type Client struct {
	apiKey  string
	baseURL string
	voice   string
	http    *httpclient.Client
}

var _ core.SpeechSynthesizer = (*Client)(nil)

// New builds a speech client. An API key is required.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("speech api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := cfg.HTTP
	if hc == nil {
		hc = httpclient.New(httpclient.Config{
			Service:    "text-to-speech",
			Timeout:    cfg.Timeout,
			RetryLimit: 1,
		})
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, voice: strings.TrimSpace(cfg.Voice), http: hc}, nil
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

// Synthesize returns MP3 audio for text spoken in lang.
func (c *Client) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is required")
	}
	var req synthesizeRequest
	req.Input.Text = text
	req.Voice.LanguageCode = lang
	req.Voice.Name = c.voice
	req.AudioConfig.AudioEncoding = "MP3"

	h := http.Header{}
	h.Set("X-Goog-Api-Key", c.apiKey)
	resp, err := c.http.PostJSON(ctx, c.baseURL+"/v1/text:synthesize", h, req)
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}

	var out struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode speech response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode speech audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("speech response contained no audio")
	}
	return audio, nil
}
