// Package model defines the core data types shared by the interview answer pipeline.
package model

import (
	"net/mail"
	"strings"
	"time"

	apperrors "github.com/target/mmk-interviews/internal/errors"
)

// NoSpeechDetected is the answer text recorded when a transcript is empty.
const NoSpeechDetected = "No speech detected"

// Session is one interview instance: a fixed, ordered question set, the traits the employer
// is looking for and the address that receives the final report.
type Session struct {
	ID            string    `json:"id"`
	Questions     []string  `json:"questions"`
	Traits        []string  `json:"traits"`
	EmployerEmail string    `json:"employer_email"`
	CreatedAt     time.Time `json:"created_at"`
}

// Clone returns a deep copy so callers never share the question slice with the store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Questions = append([]string(nil), s.Questions...)
	out.Traits = append([]string(nil), s.Traits...)
	return &out
}

// QuestionIndex returns the position of question in the session, or -1 when the exact text
// is not part of the question set.
func (s *Session) QuestionIndex(question string) int {
	for i, q := range s.Questions {
		if q == question {
			return i
		}
	}
	return -1
}

// CreateSessionRequest represents a request to define a new interview session.
type CreateSessionRequest struct {
	Questions       []string `json:"questions"`
	Traits          []string `json:"traits"`
	EmployerEmail   string   `json:"employer_email"`
	ApplicantEmails []string `json:"applicant_emails"`
}

// Validate checks required fields and normalizes whitespace in place.
func (r *CreateSessionRequest) Validate() error {
	r.Questions = compact(r.Questions)
	r.Traits = compact(r.Traits)
	r.ApplicantEmails = compact(r.ApplicantEmails)
	r.EmployerEmail = strings.TrimSpace(r.EmployerEmail)

	if len(r.Questions) == 0 {
		return apperrors.ValidationField("questions", "questions is required and cannot be empty")
	}
	if len(r.Traits) == 0 {
		return apperrors.ValidationField("traits", "traits is required and cannot be empty")
	}
	if r.EmployerEmail == "" {
		return apperrors.ValidationField("employer_email", "employer_email is required and cannot be empty")
	}
	if _, err := mail.ParseAddress(r.EmployerEmail); err != nil {
		return apperrors.ValidationField("employer_email", "employer_email must be a valid email address")
	}
	for _, addr := range r.ApplicantEmails {
		if _, err := mail.ParseAddress(addr); err != nil {
			return apperrors.ValidationField("applicant_emails", "applicant_emails must contain valid email addresses")
		}
	}
	return nil
}

// SessionLinks are the candidate and employer facing URLs for a new session.
type SessionLinks struct {
	SessionID    string `json:"interview_id"`
	InterviewURL string `json:"interview_link"`
	ReportURL    string `json:"report_link"`
}

// Evaluation is the scored judgement of one answer.
type Evaluation struct {
	Rating   Rating `json:"rating"`
	Feedback string `json:"feedback"`
}

// AnsweredQuestion is one completed question, transcript and evaluation record.
type AnsweredQuestion struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Evaluation Evaluation `json:"evaluation"`
}

// AppendReceipt describes the state of a session immediately after a result was appended.
type AppendReceipt struct {
	Session *Session
	Count   int
	Results []AnsweredQuestion
}

// SessionResults is the employer facing view of a session's accumulated answers.
type SessionResults struct {
	Results       []AnsweredQuestion `json:"results"`
	AverageRating float64            `json:"average_rating"`
}

// Report is handed to the report delivery collaborator once a session completes.
type Report struct {
	SessionID     string
	EmployerEmail string
	Results       []AnsweredQuestion
	AverageRating float64
}

// Invitation asks one applicant to take an interview.
type Invitation struct {
	SessionID      string
	ApplicantEmail string
	EmployerEmail  string
	InterviewURL   string
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
