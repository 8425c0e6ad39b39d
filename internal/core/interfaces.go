// Package core defines the ports between the interview pipeline services and the adapters that
// talk to storage, providers and mail.
package core

import (
	"context"
	"io"
	"time"

	"github.com/target/mmk-interviews/internal/domain/model"
)

// This file contains the port definitions of the hexagonal layout.
// Services depend on these interfaces; internal/data and internal/adapters implement them.

// SessionRepository stores interview sessions and their accumulated answers.
type SessionRepository interface {
	Create(ctx context.Context, req *model.CreateSessionRequest) (*model.Session, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	AppendResult(ctx context.Context, id string, answer model.AnsweredQuestion) (*model.AppendReceipt, error)
	Results(ctx context.Context, id string) ([]model.AnsweredQuestion, error)
	// ClaimReport flips the one-shot report flag. It returns true for exactly one caller per session.
	ClaimReport(ctx context.Context, id string) (bool, error)
}

// SubmitAudioRequest groups the inputs for Transcriber.Submit.
type SubmitAudioRequest struct {
	Path        string
	MimeType    string
	DisplayName string
}

// Transcriber is the external speech-to-text capability. A submitted job is polled through
// State until it reports ACTIVE, after which Transcript may be called.
type Transcriber interface {
	Submit(ctx context.Context, req SubmitAudioRequest) (*model.JobHandle, error)
	State(ctx context.Context, handle *model.JobHandle) (model.JobState, error)
	Transcript(ctx context.Context, handle *model.JobHandle) (string, error)
	Release(ctx context.Context, handle *model.JobHandle) error
}

// Scorer sends a prompt to the evaluation model and returns its raw text reply.
type Scorer interface {
	Score(ctx context.Context, prompt string) (string, error)
}

// ReportSender delivers the final interview report to the employer.
type ReportSender interface {
	SendReport(ctx context.Context, report model.Report) error
}

// InviteSender delivers interview invitations to applicants.
type InviteSender interface {
	SendInvite(ctx context.Context, inv model.Invitation) error
}

// StageRequest groups the inputs for AudioStager.Stage.
type StageRequest struct {
	Filename string
	MimeType string
	Body     io.Reader
}

// AudioStager writes uploads to local storage so they can be handed to the transcriber.
type AudioStager interface {
	Stage(ctx context.Context, req StageRequest) (*model.StagedAudio, error)
	Remove(ctx context.Context, path string) error
	// Sweep deletes staged files last modified before olderThan and returns how many were removed.
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
}

// SpeechSynthesizer renders question text to spoken audio (audio/mpeg).
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}
