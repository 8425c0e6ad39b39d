// Package pagerduty raises failure notifications through the PagerDuty Events API v2.
package pagerduty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/target/mmk-interviews/internal/httpclient"
	"github.com/target/mmk-interviews/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	RoutingKey string
	Source     string
	Component  string
	Timeout    time.Duration
	RetryLimit int
	// Endpoint overrides APIEndpoint (tests).
	Endpoint string
	HTTP     *httpclient.Client
}

// Client publishes events via PagerDuty's Events API v2.
type Client struct {
	routingKey string
	source     string
	component  string
	endpoint   string
	http       *httpclient.Client
}

// NewClient constructs a PagerDuty events client from config. Callers must provide a routing key.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}

	hc := cfg.HTTP
	if hc == nil {
		hc = httpclient.New(httpclient.Config{
			Service:    "pagerduty api",
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
	}

	return &Client{
		routingKey: key,
		source:     fallbackString(strings.TrimSpace(cfg.Source), "interviewer"),
		component:  fallbackString(strings.TrimSpace(cfg.Component), "answer-pipeline"),
		endpoint:   fallbackString(strings.TrimSpace(cfg.Endpoint), APIEndpoint),
		http:       hc,
	}, nil
}

// SendFailure submits a trigger event to PagerDuty.
func (c *Client) SendFailure(ctx context.Context, payload notify.FailurePayload) error {
	_, err := c.http.PostJSON(ctx, c.endpoint, nil, c.buildEvent(payload))
	return err
}

func (c *Client) buildEvent(payload notify.FailurePayload) map[string]any {
	severity := fallbackString(strings.ToLower(payload.Severity), notify.SeverityCritical)

	occurredAt := payload.OccurredAt.UTC()
	if payload.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	custom := map[string]any{
		"session_id":  payload.SessionID,
		"question":    payload.Question,
		"stage":       payload.Stage,
		"error":       payload.Error,
		"error_class": payload.ErrorClass,
	}
	for k, v := range payload.Metadata {
		if _, exists := custom[k]; !exists {
			custom[k] = v
		}
	}

	// one open incident per session and stage
	dedupKey := strings.Trim(fmt.Sprintf("%s:%s", payload.SessionID, payload.Stage), ":")

	return map[string]any{
		"routing_key":  c.routingKey,
		"event_action": "trigger",
		"dedup_key":    dedupKey,
		"payload": map[string]any{
			"summary": fmt.Sprintf(
				"Interview answer %s failed for session %s",
				fallbackString(payload.Stage, "processing"),
				fallbackString(payload.SessionID, "unknown"),
			),
			"severity":       severity,
			"source":         c.source,
			"component":      c.component,
			"timestamp":      occurredAt.Format(time.RFC3339),
			"custom_details": custom,
		},
	}
}

func fallbackString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
