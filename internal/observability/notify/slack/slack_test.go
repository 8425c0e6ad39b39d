package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/target/mmk-interviews/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#interviews",
		Username:   "bot",
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.FailurePayload{
		SessionID:  "s-123",
		Question:   "Why <us>?",
		Stage:      "transcribe",
		Error:      "job failed",
		ErrorClass: "transcription_failed",
		Metadata:   map[string]string{"filename": "answer.webm"},
	})

	if msg["username"] != "bot" {
		t.Fatalf("expected username to be preserved, got %v", msg["username"])
	}
	if msg["channel"] != "#interviews" {
		t.Fatalf("expected channel to be set, got %v", msg["channel"])
	}

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	for _, want := range []string{
		"Interview pipeline failure", "transcribe", "s-123", "Why &lt;us&gt;?", "job failed",
		"transcription_failed", "filename: answer.webm", "Severity: critical",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("message text missing %q: %s", want, text)
		}
	}
}

func TestFormatMessageReportLink(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL:      "https://hooks.slack.com/services/test",
		ReportURLPrefix: "https://interviews.example/results",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, _ := client.formatMessage(notify.FailurePayload{SessionID: "s-9"})["text"].(string)
	expected := "<https://interviews.example/results/s-9|s-9>"
	if !strings.Contains(text, expected) {
		t.Fatalf("expected report link %q in text: %s", expected, text)
	}
}

func TestReportLinkRejectsRelativePrefix(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://x", ReportURLPrefix: "/results"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.formatSession("s-1"); got != "s-1" {
		t.Fatalf("formatSession() = %q, want plain id", got)
	}
}

func TestSendFailurePostsJSON(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.SendFailure(context.Background(), notify.FailurePayload{SessionID: "s-1"}); err != nil {
		t.Fatalf("SendFailure error: %v", err)
	}

	body := <-received
	if body["username"] != "interviewer" {
		t.Fatalf("expected default username, got %v", body["username"])
	}
}
