package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/domain/model"
	apperrors "github.com/target/mmk-interviews/internal/errors"
)

const maxConcurrentInvites = 4

// LinkBuilder turns a session id into the candidate and employer URLs.
type LinkBuilder interface {
	InterviewURL(sessionID string) string
	ReportURL(sessionID string) string
}

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Sessions core.SessionRepository // Required
	Links    LinkBuilder            // Required
	Invites  core.InviteSender      // Optional: invitations are skipped when nil
	Logger   *slog.Logger
}

// SessionService creates interview sessions and exposes their questions and results.
type SessionService struct {
	sessions core.SessionRepository
	links    LinkBuilder
	invites  core.InviteSender
	logger   *slog.Logger
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Sessions == nil {
		return nil, errors.New("session repository is required")
	}
	if opts.Links == nil {
		return nil, errors.New("link builder is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		sessions: opts.Sessions,
		links:    opts.Links,
		invites:  opts.Invites,
		logger:   logger.With("component", "session_service"),
	}, nil
}

// Create validates req, stores a new session and invites each applicant. Invitation failures
// are logged per applicant and do not fail the call.
func (s *SessionService) Create(ctx context.Context, req *model.CreateSessionRequest) (*model.SessionLinks, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	links := &model.SessionLinks{
		SessionID:    session.ID,
		InterviewURL: s.links.InterviewURL(session.ID),
		ReportURL:    s.links.ReportURL(session.ID),
	}

	sent := s.sendInvites(ctx, session, links.InterviewURL, req.ApplicantEmails)
	s.logger.InfoContext(ctx, "interview session created",
		"session_id", session.ID,
		"questions", len(session.Questions),
		"invites_requested", len(req.ApplicantEmails),
		"invites_sent", sent,
	)
	return links, nil
}

// sendInvites delivers invitations concurrently and returns how many succeeded.
func (s *SessionService) sendInvites(ctx context.Context, session *model.Session, url string, applicants []string) int {
	if s.invites == nil || len(applicants) == 0 {
		return 0
	}

	results := make([]bool, len(applicants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentInvites)
	for i, addr := range applicants {
		g.Go(func() error {
			err := s.invites.SendInvite(gctx, model.Invitation{
				SessionID:      session.ID,
				ApplicantEmail: addr,
				EmployerEmail:  session.EmployerEmail,
				InterviewURL:   url,
			})
			if err != nil {
				s.logger.WarnContext(gctx, "failed to send invitation",
					"session_id", session.ID,
					"applicant", addr,
					"error", err,
				)
				return nil
			}
			results[i] = true
			return nil
		})
	}
	_ = g.Wait()

	sent := 0
	for _, ok := range results {
		if ok {
			sent++
		}
	}
	return sent
}

// Questions returns the ordered question set of a session.
func (s *SessionService) Questions(ctx context.Context, id string) ([]string, error) {
	session, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.Questions, nil
}

// Results returns every recorded answer with the average of the valid ratings.
func (s *SessionService) Results(ctx context.Context, id string) (*model.SessionResults, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ValidationField("id", "interview id is required")
	}
	results, err := s.sessions.Results(ctx, id)
	if err != nil {
		return nil, apperrors.MapContextError(err)
	}
	return &model.SessionResults{
		Results:       results,
		AverageRating: model.AverageRating(results),
	}, nil
}

func (s *SessionService) get(ctx context.Context, id string) (*model.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ValidationField("id", "interview id is required")
	}
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, apperrors.MapContextError(err)
	}
	return session, nil
}
