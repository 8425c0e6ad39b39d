package data

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/target/mmk-interviews/internal/core"
	"github.com/target/mmk-interviews/internal/domain/model"
	apperrors "github.com/target/mmk-interviews/internal/errors"
)

// sessionEntry holds one session and its answers. Appends and the report flag are guarded by
// the entry's own mutex so sessions never contend with each other.
type sessionEntry struct {
	mu            sync.Mutex
	session       *model.Session
	results       []model.AnsweredQuestion
	reportClaimed bool
}

// SessionRepo is the in-process session store. State lives for the lifetime of the process.
type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	time     TimeProvider
	newID    func() string
}

// SessionRepoOptions groups optional collaborators for NewSessionRepo.
type SessionRepoOptions struct {
	TimeProvider TimeProvider
	// IDGenerator overrides uuid generation; mostly useful in tests.
	IDGenerator func() string
}

// NewSessionRepo creates an empty SessionRepo.
func NewSessionRepo(opts SessionRepoOptions) *SessionRepo {
	tp := opts.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	gen := opts.IDGenerator
	if gen == nil {
		gen = uuid.NewString
	}
	return &SessionRepo{
		sessions: make(map[string]*sessionEntry),
		time:     tp,
		newID:    gen,
	}
}

// Create stores a new session with a fresh id. The request is assumed to be validated.
func (r *SessionRepo) Create(ctx context.Context, req *model.CreateSessionRequest) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrSessionRequestRequired
	}

	s := &model.Session{
		Questions:     append([]string(nil), req.Questions...),
		Traits:        append([]string(nil), req.Traits...),
		EmployerEmail: req.EmployerEmail,
		CreatedAt:     r.time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		s.ID = r.newID()
		if _, exists := r.sessions[s.ID]; !exists {
			break
		}
	}
	r.sessions[s.ID] = &sessionEntry{session: s}
	return s.Clone(), nil
}

// Get returns a copy of the session or a not-found error.
func (r *SessionRepo) Get(ctx context.Context, id string) (*model.Session, error) {
	entry, err := r.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	return entry.session.Clone(), nil
}

// AppendResult atomically appends answer to the session's results.
func (r *SessionRepo) AppendResult(
	ctx context.Context,
	id string,
	answer model.AnsweredQuestion,
) (*model.AppendReceipt, error) {
	entry, err := r.entry(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.results = append(entry.results, answer)
	return &model.AppendReceipt{
		Session: entry.session.Clone(),
		Count:   len(entry.results),
		Results: cloneResults(entry.results),
	}, nil
}

// Results returns the session's answers in append order.
func (r *SessionRepo) Results(ctx context.Context, id string) ([]model.AnsweredQuestion, error) {
	entry, err := r.entry(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneResults(entry.results), nil
}

// ClaimReport returns true the first time it is called for a session and false afterwards.
func (r *SessionRepo) ClaimReport(ctx context.Context, id string) (bool, error) {
	entry, err := r.entry(ctx, id)
	if err != nil {
		return false, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.reportClaimed {
		return false, nil
	}
	entry.reportClaimed = true
	return true, nil
}

// Len returns the number of stored sessions.
func (r *SessionRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRepo) entry(ctx context.Context, id string) (*sessionEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	entry, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.SessionNotFound(id)
	}
	return entry, nil
}

func cloneResults(in []model.AnsweredQuestion) []model.AnsweredQuestion {
	out := make([]model.AnsweredQuestion, len(in))
	copy(out, in)
	return out
}

var _ core.SessionRepository = (*SessionRepo)(nil)
