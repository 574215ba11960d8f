package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/akademia-app/exam-api/internal/models"
)

// AssignmentCreateRequest is the payload for binding an exam to a target with
// a time window and attempt limit. Exactly one of GroupID/StudentID must be set.
type AssignmentCreateRequest struct {
	ExamID          uuid.UUID  `json:"exam_id" validate:"required"`
	GroupID         *uuid.UUID `json:"group_id"`
	StudentID       *uuid.UUID `json:"student_id"`
	OpensAt         time.Time  `json:"opens_at" validate:"required"`
	ClosesAt        time.Time  `json:"closes_at" validate:"required"`
	AttemptsAllowed int        `json:"attempts_allowed" validate:"required,min=1,max=5"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	ExamID          uuid.UUID  `json:"exam_id"`
	GroupID         *uuid.UUID `json:"group_id"`
	StudentID       *uuid.UUID `json:"student_id"`
	OpensAt         time.Time  `json:"opens_at"`
	ClosesAt        time.Time  `json:"closes_at"`
	AttemptsAllowed int        `json:"attempts_allowed"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewAssignmentResponse converts an ExamAssignment model into a DTO.
func NewAssignmentResponse(model models.ExamAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:              model.ID,
		ExamID:          model.ExamID,
		GroupID:         model.GroupID,
		StudentID:       model.StudentID,
		OpensAt:         model.OpensAt,
		ClosesAt:        model.ClosesAt,
		AttemptsAllowed: model.AttemptsAllowed,
		CreatedAt:       model.CreatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.ExamAssignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
