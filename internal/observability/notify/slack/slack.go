// Package slack posts failure notifications to a Slack incoming webhook.
package slack

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/target/mmk-interviews/internal/httpclient"
	"github.com/target/mmk-interviews/internal/observability/notify"
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	// ReportURLPrefix, when set, turns the session id into a link to the employer report page.
	ReportURLPrefix string
	HTTP            *httpclient.Client
}

// Client delivers failure notifications to a Slack webhook.
type Client struct {
	webhookURL      string
	channel         string
	username        string
	reportURLPrefix string
	http            *httpclient.Client
}

// NewClient builds a Slack webhook client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	hc := cfg.HTTP
	if hc == nil {
		hc = httpclient.New(httpclient.Config{
			Service:    "slack webhook",
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
	}

	return &Client{
		webhookURL:      webhookURL,
		channel:         strings.TrimSpace(cfg.Channel),
		username:        fallbackString(strings.TrimSpace(cfg.Username), "interviewer"),
		reportURLPrefix: strings.TrimSpace(cfg.ReportURLPrefix),
		http:            hc,
	}, nil
}

// SendFailure posts a formatted message to Slack.
func (c *Client) SendFailure(ctx context.Context, payload notify.FailurePayload) error {
	_, err := c.http.PostJSON(ctx, c.webhookURL, nil, c.formatMessage(payload))
	return err
}

func (c *Client) formatMessage(payload notify.FailurePayload) map[string]any {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var text strings.Builder
	text.WriteString("*Interview pipeline failure*")
	if payload.Stage != "" {
		text.WriteString(" (")
		text.WriteString(payload.Stage)
		text.WriteByte(')')
	}
	text.WriteByte('\n')

	fields := []struct {
		label string
		value string
	}{
		{"Severity", fallbackString(payload.Severity, notify.SeverityCritical)},
		{"Session", c.formatSession(payload.SessionID)},
		{"Question", escapeSlackText(payload.Question)},
		{"Error class", payload.ErrorClass},
		{"Error", escapeSlackText(payload.Error)},
	}
	for _, field := range fields {
		appendField(&text, field.label, field.value)
	}
	appendMetadata(&text, payload.Metadata)
	text.WriteString("• Timestamp: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func (c *Client) formatSession(sessionID string) string {
	id := escapeSlackText(strings.TrimSpace(sessionID))
	if id == "" {
		return ""
	}
	if link := c.reportLink(strings.TrimSpace(sessionID)); link != "" {
		return "<" + link + "|" + id + ">"
	}
	return id
}

func (c *Client) reportLink(sessionID string) string {
	if c.reportURLPrefix == "" {
		return ""
	}
	u, err := url.Parse(c.reportURLPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	link, err := url.JoinPath(u.String(), sessionID)
	if err != nil {
		return ""
	}
	return link
}

func escapeSlackText(value string) string {
	if value == "" {
		return ""
	}
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(value)
}

func appendField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}

func appendMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	text.WriteString("• Metadata:\n")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text.WriteString("    • ")
		text.WriteString(k)
		text.WriteString(": ")
		text.WriteString(metadata[k])
		text.WriteByte('\n')
	}
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
