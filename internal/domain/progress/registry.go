// Package progress fans pipeline progress events out to the single observer of each session.
package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/target/mmk-interviews/internal/domain/model"
)

// ErrStreamClosed is returned by Stream.Next once the stream has been released.
var ErrStreamClosed = errors.New("progress stream closed")

const (
	// DefaultBuffer is the number of undelivered events kept per session.
	DefaultBuffer = 32
	// DefaultHeartbeatInterval is how long Next waits before yielding a heartbeat.
	DefaultHeartbeatInterval = 30 * time.Second
)

// Message is one item read from a Stream: either an event or a keep-alive heartbeat.
type Message struct {
	Event     model.ProgressEvent
	Heartbeat bool
}

// Publisher is the write side used by the answer pipeline.
type Publisher interface {
	Publish(sessionID string, ev model.ProgressEvent)
}

// RegistryOptions configure the behaviour of the registry.
type RegistryOptions struct {
	Buffer            int
	HeartbeatInterval time.Duration
	Logger            *slog.Logger
}

// Registry maps session ids to their current subscriber. Each session has at most one
// observer; subscribing again replaces the previous stream.
type Registry struct {
	buffer    int
	heartbeat time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	streams map[string]*Stream

	dropped atomic.Uint64
}

// NewRegistry constructs a registry, applying defaults for unset options.
func NewRegistry(opts RegistryOptions) *Registry {
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	heartbeat := opts.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		buffer:    buffer,
		heartbeat: heartbeat,
		logger:    logger.With("component", "progress_registry"),
		streams:   make(map[string]*Stream),
	}
}

// Subscribe registers a new stream for sessionID. A previous stream for the same session is
// closed and its reader observes ErrStreamClosed.
func (r *Registry) Subscribe(sessionID string) *Stream {
	s := &Stream{
		sessionID: sessionID,
		registry:  r,
		events:    make(chan model.ProgressEvent, r.buffer),
		done:      make(chan struct{}),
		heartbeat: r.heartbeat,
	}

	r.mu.Lock()
	prev := r.streams[sessionID]
	r.streams[sessionID] = s
	r.mu.Unlock()

	if prev != nil {
		prev.release()
		r.logger.Debug("replaced progress subscriber", "session_id", sessionID)
	}
	return s
}

// Publish enqueues ev for the session's subscriber. It never blocks: without a subscriber the
// event is discarded, and when the buffer is full the event is dropped and counted.
func (r *Registry) Publish(sessionID string, ev model.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.streams[sessionID]
	if s == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
		r.dropped.Add(1)
		r.logger.Warn("progress buffer full, dropping event",
			"session_id", sessionID,
			"step", ev.Step,
		)
	}
}

// Unsubscribe releases the session's stream, if any.
func (r *Registry) Unsubscribe(sessionID string) {
	r.mu.Lock()
	s := r.streams[sessionID]
	delete(r.streams, sessionID)
	r.mu.Unlock()

	if s != nil {
		s.release()
	}
}

// StopAll releases every stream. Used at shutdown so open SSE handlers return.
func (r *Registry) StopAll() {
	r.mu.Lock()
	streams := r.streams
	r.streams = make(map[string]*Stream)
	r.mu.Unlock()

	for _, s := range streams {
		s.release()
	}
}

// Subscribers returns the number of sessions with an active stream.
func (r *Registry) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}

// Dropped returns how many events were discarded because a buffer was full.
func (r *Registry) Dropped() uint64 {
	return r.dropped.Load()
}

// detach removes s from the registry unless it has already been replaced.
func (r *Registry) detach(s *Stream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.streams[s.sessionID] == s {
		delete(r.streams, s.sessionID)
	}
}

// Stream is the read side of one session subscription.
type Stream struct {
	sessionID string
	registry  *Registry
	events    chan model.ProgressEvent
	done      chan struct{}
	closeOnce sync.Once
	heartbeat time.Duration
}

// SessionID returns the session the stream observes.
func (s *Stream) SessionID() string {
	return s.sessionID
}

// Next blocks until an event arrives, the heartbeat window elapses, ctx is done or the stream
// is released.
func (s *Stream) Next(ctx context.Context) (Message, error) {
	select {
	case <-s.done:
		return Message{}, ErrStreamClosed
	default:
	}

	timer := time.NewTimer(s.heartbeat)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-s.done:
		return Message{}, ErrStreamClosed
	case ev := <-s.events:
		return Message{Event: ev}, nil
	case <-timer.C:
		return Message{Heartbeat: true}, nil
	}
}

// Close detaches the stream from the registry. It is safe to call more than once.
func (s *Stream) Close() {
	s.registry.detach(s)
	s.release()
}

// release marks the stream closed. The events channel is never closed so a concurrent
// Publish cannot panic; buffered events are left for the garbage collector.
func (s *Stream) release() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

var _ Publisher = (*Registry)(nil)
