package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/akademia-app/exam-api/internal/models"
)

// ExamQuestionInput describes one question binding in an exam create request.
type ExamQuestionInput struct {
	QuestionID uuid.UUID `json:"question_id" validate:"required"`
	Points     float64   `json:"points" validate:"gte=0"`
	Position   int       `json:"position" validate:"gte=1"`
}

// ExamCreateRequest is the payload for creating an exam with its questions.
type ExamCreateRequest struct {
	Title           string              `json:"title" validate:"required,min=3,max=255"`
	Type            string              `json:"type" validate:"required,oneof=quiz test final"`
	DurationMinutes int                 `json:"duration_minutes" validate:"required,gte=1,lte=480"`
	Questions       []ExamQuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// ExamUpdateRequest carries the mutable exam fields. Rejected while an
// assignment window against the exam is open.
type ExamUpdateRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=3,max=255"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gte=1,lte=480"`
}

// ExamQuestionResponse serializes a question binding.
type ExamQuestionResponse struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Points     float64   `json:"points"`
	Position   int       `json:"position"`
}

// ExamResponse is returned to API clients when viewing exams.
type ExamResponse struct {
	ID              uuid.UUID              `json:"id"`
	Title           string                 `json:"title"`
	Type            string                 `json:"type"`
	DurationMinutes int                    `json:"duration_minutes"`
	MaxScore        float64                `json:"max_score"`
	Questions       []ExamQuestionResponse `json:"questions"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// NewExamResponse converts an Exam model into a DTO.
func NewExamResponse(model models.Exam) ExamResponse {
	questions := make([]ExamQuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		questions = append(questions, ExamQuestionResponse{
			ID:         question.ID,
			QuestionID: question.QuestionID,
			Points:     question.Points,
			Position:   question.Position,
		})
	}

	return ExamResponse{
		ID:              model.ID,
		Title:           model.Title,
		Type:            model.Type,
		DurationMinutes: model.DurationMinutes,
		MaxScore:        model.MaxScore(),
		Questions:       questions,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewExamResponseSlice converts exam models into DTOs.
func NewExamResponseSlice(exams []models.Exam) []ExamResponse {
	responses := make([]ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, NewExamResponse(exam))
	}

	return responses
}
