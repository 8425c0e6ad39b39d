// Package gemini implements the transcription and scoring ports on top of the Gemini REST API:
// the Files API holds uploaded answers while generateContent transcribes and scores them.
package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/httpclient"
)

const (
	// DefaultBaseURL is the public Gemini API root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gemini-2.5-flash"

	apiVersion = "v1beta"
)

// TranscriptionPrompt is sent alongside the uploaded audio.
const TranscriptionPrompt = `Please transcribe the audio file.
Instructions:
1. Listen to the audio carefully
2. Transcribe all spoken words
3. Return only the transcription text
4. If no speech is detected, return 'No speech detected'`

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	RetryLimit int
	HTTP       *httpclient.Client
}

// Client talks to the Gemini API. It satisfies core.Transcriber and core.Scorer.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *httpclient.Client
}

var (
	_ core.Transcriber = (*Client)(nil)
	_ core.Scorer      = (*Client)(nil)
)

// New builds a Gemini client. An API key is required.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	hc := cfg.HTTP
	if hc == nil {
		hc = httpclient.New(httpclient.Config{
			Service:    "gemini",
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, model: model, http: hc}, nil
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("x-goog-api-key", c.apiKey)
	return h
}

func (c *Client) apiURL(path string) string {
	return c.baseURL + "/" + apiVersion + "/" + strings.TrimLeft(path, "/")
}

func decode(body []byte, into any, what string) error {
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("decode gemini %s response: %w", what, err)
	}
	return nil
}
