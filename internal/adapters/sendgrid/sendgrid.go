// Package sendgrid delivers interview reports and invitations through the SendGrid v3 mail API.
package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/domain/model"
	"github.com/target/mmk-interviews/internal/httpclient"
)

// DefaultBaseURL is the public SendGrid API root.
const DefaultBaseURL = "https://api.sendgrid.com"

const inviteSubject = "You're Invited to an AI Interview!"

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	ReportFrom string
	InviteFrom string
	Timeout    time.Duration
	RetryLimit int
	HTTP       *httpclient.Client
}

// Client sends mail through SendGrid. It satisfies core.ReportSender and core.InviteSender.
type Client struct {
	apiKey     string
	baseURL    string
	reportFrom string
	inviteFrom string
	http       *httpclient.Client
}

var (
	_ core.ReportSender = (*Client)(nil)
	_ core.InviteSender = (*Client)(nil)
)

// New builds a SendGrid client. The API key and report sender address are required; the invite
// sender defaults to the report sender.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	reportFrom := strings.TrimSpace(cfg.ReportFrom)
	if reportFrom == "" {
		return nil, errors.New("sendgrid report sender is required")
	}
	inviteFrom := strings.TrimSpace(cfg.InviteFrom)
	if inviteFrom == "" {
		inviteFrom = reportFrom
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := cfg.HTTP
	if hc == nil {
		hc = httpclient.New(httpclient.Config{
			Service:    "sendgrid",
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		reportFrom: reportFrom,
		inviteFrom: inviteFrom,
		http:       hc,
	}, nil
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	ReplyTo          *address          `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

// SendReport mails the results table to the employer.
func (c *Client) SendReport(ctx context.Context, report model.Report) error {
	to := strings.TrimSpace(report.EmployerEmail)
	if to == "" {
		return errors.New("report recipient is required")
	}
	body, err := RenderReport(report)
	if err != nil {
		return err
	}
	return c.send(ctx, mailRequest{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: c.reportFrom},
		Subject:          "Interview Report - ID: " + report.SessionID,
		Content:          []mailContent{{Type: "text/html", Value: body}},
	})
}

// SendInvite mails the interview link to one applicant. Replies go to the employer.
func (c *Client) SendInvite(ctx context.Context, inv model.Invitation) error {
	to := strings.TrimSpace(inv.ApplicantEmail)
	if to == "" {
		return errors.New("invite recipient is required")
	}
	body, err := RenderInvite(inv)
	if err != nil {
		return err
	}
	msg := mailRequest{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: c.inviteFrom},
		Subject:          inviteSubject,
		Content:          []mailContent{{Type: "text/html", Value: body}},
	}
	if reply := strings.TrimSpace(inv.EmployerEmail); reply != "" {
		msg.ReplyTo = &address{Email: reply}
	}
	return c.send(ctx, msg)
}

func (c *Client) send(ctx context.Context, msg mailRequest) error {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.apiKey)
	if _, err := c.http.PostJSON(ctx, c.baseURL+"/v3/mail/send", h, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.Personalizations[0].To[0].Email, err)
	}
	return nil
}
