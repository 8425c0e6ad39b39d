package config

import (
	"strings"
	"time"
)

const defaultMaxUploadBytes = 25 << 20

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// FrontendURL is the base URL of the candidate and employer web app.
	// Interview and report links sent to users are built from it.
	FrontendURL string `env:"APP_FRONTEND_URL" envDefault:"http://localhost:5173"`

	// CORSOrigins lists origins allowed to call the API from a browser. "*" allows any.
	CORSOrigins []string `env:"HTTP_CORS_ORIGINS" envDefault:"http://localhost:5173"`

	// CompressionEnabled enables gzip compression for JSON responses.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`

	// MaxUploadBytes caps the multipart body of an answer upload.
	MaxUploadBytes int64 `env:"HTTP_MAX_UPLOAD_BYTES" envDefault:"26214400"`

	// ReadHeaderTimeout bounds how long a client may take to send request headers.
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
	if h.MaxUploadBytes <= 0 {
		h.MaxUploadBytes = defaultMaxUploadBytes
	}
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 30 * time.Second
	}
	h.FrontendURL = strings.TrimRight(strings.TrimSpace(h.FrontendURL), "/")

	origins := h.CORSOrigins[:0]
	for _, o := range h.CORSOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	h.CORSOrigins = origins
}

// InterviewURL is the candidate link for a session.
func (h *HTTPConfig) InterviewURL(sessionID string) string {
	return h.FrontendURL + "/session/" + sessionID
}

// ReportURL is the employer link for a session.
func (h *HTTPConfig) ReportURL(sessionID string) string {
	return h.FrontendURL + "/results/" + sessionID
}
