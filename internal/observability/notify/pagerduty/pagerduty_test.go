package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-interviews/internal/observability/notify"
)

func TestNewClientRequiresRoutingKey(t *testing.T) {
	_, err := NewClient(Config{RoutingKey: "  "})
	require.Error(t, err)
}

func TestBuildEvent(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "rk"})
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	event := client.buildEvent(notify.FailurePayload{
		SessionID:  "s-1",
		Stage:      "evaluate",
		Error:      "bad json",
		ErrorClass: "evaluation",
		OccurredAt: at,
		Metadata:   map[string]string{"stage": "ignored", "filename": "a.webm"},
	})

	assert.Equal(t, "rk", event["routing_key"])
	assert.Equal(t, "trigger", event["event_action"])
	assert.Equal(t, "s-1:evaluate", event["dedup_key"])

	payload, ok := event["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "critical", payload["severity"])
	assert.Equal(t, "2024-05-01T10:00:00Z", payload["timestamp"])
	assert.Equal(t, "Interview answer evaluate failed for session s-1", payload["summary"])

	custom, ok := payload["custom_details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "evaluate", custom["stage"])
	assert.Equal(t, "a.webm", custom["filename"])
}

func TestSendFailure(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL})
	require.NoError(t, err)
	require.NoError(t, client.SendFailure(context.Background(), notify.FailurePayload{SessionID: "s-2", Severity: "WARNING"}))

	payload, ok := got["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "warning", payload["severity"])
	assert.Equal(t, "s-2", got["dedup_key"])
}
