package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/akademia-app/exam-api/internal/models"
)

// AnswerInput carries one answer payload in a save request. The payload is an
// opaque structured value whose shape depends on the question type.
type AnswerInput struct {
	QuestionID uuid.UUID       `json:"question_id" validate:"required"`
	Payload    json.RawMessage `json:"payload" validate:"required"`
}

// SaveAnswersRequest is the payload for the answer upsert operation.
type SaveAnswersRequest struct {
	Answers []AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

// AnswerResponse serializes one attempt answer.
type AnswerResponse struct {
	ID         uuid.UUID       `json:"id"`
	QuestionID uuid.UUID       `json:"question_id"`
	Payload    json.RawMessage `json:"payload"`
	Score      *float64        `json:"score"`
	GraderKind string          `json:"grader_kind,omitempty"`
	Feedback   string          `json:"feedback,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AttemptResponse is returned to API clients when viewing attempts.
type AttemptResponse struct {
	ID           uuid.UUID        `json:"id"`
	AssignmentID uuid.UUID        `json:"assignment_id"`
	StudentID    uuid.UUID        `json:"student_id"`
	Ordinal      int              `json:"ordinal"`
	State        string           `json:"state"`
	StartedAt    time.Time        `json:"started_at"`
	SubmittedAt  *time.Time       `json:"submitted_at"`
	TotalScore   *float64         `json:"total_score"`
	Answers      []AnswerResponse `json:"answers"`
}

// NewAttemptResponse converts an ExamAttempt model into a DTO.
func NewAttemptResponse(model models.ExamAttempt) AttemptResponse {
	answers := make([]AnswerResponse, 0, len(model.Answers))
	for _, answer := range model.Answers {
		answers = append(answers, AnswerResponse{
			ID:         answer.ID,
			QuestionID: answer.QuestionID,
			Payload:    json.RawMessage(answer.Payload),
			Score:      answer.Score,
			GraderKind: answer.GraderKind,
			Feedback:   answer.Feedback,
			UpdatedAt:  answer.UpdatedAt,
		})
	}

	return AttemptResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Ordinal:      model.Ordinal,
		State:        model.State,
		StartedAt:    model.StartedAt,
		SubmittedAt:  model.SubmittedAt,
		TotalScore:   model.TotalScore,
		Answers:      answers,
	}
}
