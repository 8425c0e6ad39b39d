package model

// JobState is the lifecycle state of an external transcription job.
type JobState string

const (
	// JobStatePending means the provider accepted the audio but has not started on it.
	JobStatePending JobState = "PENDING"
	// JobStateProcessing means the provider is working on the audio.
	JobStateProcessing JobState = "PROCESSING"
	// JobStateActive means the audio is ready and a transcript can be requested.
	JobStateActive JobState = "ACTIVE"
	// JobStateFailed means the provider gave up on the job.
	JobStateFailed JobState = "FAILED"
	// JobStateTimedOut is assigned locally once the poll budget is exhausted.
	JobStateTimedOut JobState = "TIMED_OUT"
)

// Terminal reports whether no further polling can change the state.
func (s JobState) Terminal() bool {
	return s == JobStateActive || s == JobStateFailed || s == JobStateTimedOut
}

// Valid returns true if the JobState is known.
func (s JobState) Valid() bool {
	switch s {
	case JobStatePending, JobStateProcessing, JobStateActive, JobStateFailed, JobStateTimedOut:
		return true
	default:
		return false
	}
}

// JobHandle references an external transcription job for the duration of one upload.
type JobHandle struct {
	Name     string   `json:"name"`
	URI      string   `json:"uri"`
	MimeType string   `json:"mime_type"`
	State    JobState `json:"state"`
}

// StagedAudio is an uploaded answer written to local storage and flushed to disk.
type StagedAudio struct {
	Path     string
	MimeType string
	Size     int64
}
