package model

import "fmt"

// TotalPipelineSteps is the number of user visible stages an uploaded answer goes through.
const TotalPipelineSteps = 4

// Pipeline step numbers reported in progress events.
const (
	StepUpload     = 1
	StepProcessing = 2
	StepTranscribe = 3
	StepEvaluate   = 4
)

// ProgressEvent is an ephemeral status notification for one in-flight upload.
type ProgressEvent struct {
	Status     string `json:"status"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`
}

// NewProgressEvent builds an event for the given step of the answer pipeline.
func NewProgressEvent(step int, status string) ProgressEvent {
	return ProgressEvent{
		Status:     status,
		Step:       step,
		TotalSteps: TotalPipelineSteps,
	}
}

// PollAttemptEvent reports one transcription poll attempt.
func PollAttemptEvent(attempt, maxAttempts int) ProgressEvent {
	return NewProgressEvent(StepProcessing, fmt.Sprintf("Processing audio file (attempt %d/%d)", attempt, maxAttempts))
}
