package testutil

import (
	"github.com/target/mmk-interviews/internal/domain/model"
)

// SessionRequestBuilder provides a fluent interface for building CreateSessionRequest objects for testing.
type SessionRequestBuilder struct {
	req *model.CreateSessionRequest
}

// NewSessionRequest creates a new SessionRequestBuilder with sensible defaults.
func NewSessionRequest() *SessionRequestBuilder {
	return &SessionRequestBuilder{
		req: &model.CreateSessionRequest{
			Questions:     []string{"Q1", "Q2", "Q3"},
			Traits:        []string{"communication", "ownership"},
			EmployerEmail: "hiring@example.com",
		},
	}
}

// WithQuestions sets the question list.
func (b *SessionRequestBuilder) WithQuestions(questions ...string) *SessionRequestBuilder {
	b.req.Questions = questions
	return b
}

// WithTraits sets the desired traits.
func (b *SessionRequestBuilder) WithTraits(traits ...string) *SessionRequestBuilder {
	b.req.Traits = traits
	return b
}

// WithEmployerEmail sets the report recipient.
func (b *SessionRequestBuilder) WithEmployerEmail(email string) *SessionRequestBuilder {
	b.req.EmployerEmail = email
	return b
}

// WithApplicants sets the applicant invitation list.
func (b *SessionRequestBuilder) WithApplicants(emails ...string) *SessionRequestBuilder {
	b.req.ApplicantEmails = emails
	return b
}

// Build returns the constructed CreateSessionRequest.
func (b *SessionRequestBuilder) Build() *model.CreateSessionRequest {
	return b.req
}

// AnswerBuilder provides a fluent interface for building AnsweredQuestion values for testing.
type AnswerBuilder struct {
	answer model.AnsweredQuestion
}

// NewAnswer creates a new AnswerBuilder for question with a valid rating of 7.
func NewAnswer(question string) *AnswerBuilder {
	return &AnswerBuilder{
		answer: model.AnsweredQuestion{
			Question: question,
			Answer:   "I led the migration.",
			Evaluation: model.Evaluation{
				Rating:   model.NewRating(7),
				Feedback: "Shows ownership.",
			},
		},
	}
}

// WithRating sets the rating.
func (b *AnswerBuilder) WithRating(r int) *AnswerBuilder {
	b.answer.Evaluation.Rating = model.NewRating(r)
	return b
}

// WithAnswer sets the transcript text.
func (b *AnswerBuilder) WithAnswer(text string) *AnswerBuilder {
	b.answer.Answer = text
	return b
}

// Build returns the constructed AnsweredQuestion.
func (b *AnswerBuilder) Build() model.AnsweredQuestion {
	return b.answer
}
