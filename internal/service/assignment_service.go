package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/akademia-app/exam-api/internal/dto"
	"github.com/akademia-app/exam-api/internal/models"
	"github.com/akademia-app/exam-api/internal/repository"
)

// ErrWindowOrder indicates the close timestamp precedes the open timestamp.
var ErrWindowOrder = errors.New("close time must not precede open time")

// AssignmentService creates and lists exam assignments. Assignments are
// immutable once created; there is no update or delete operation.
type AssignmentService interface {
	Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	ListByExam(ctx context.Context, actor Actor, examID uuid.UUID) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	exams       repository.ExamRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, examRepo repository.ExamRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		exams:       examRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if !actor.IsStaff() {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if (payload.GroupID == nil) == (payload.StudentID == nil) {
		return dto.AssignmentResponse{}, ErrAssignmentTarget
	}

	if payload.ClosesAt.Before(payload.OpensAt) {
		return dto.AssignmentResponse{}, ErrWindowOrder
	}

	if _, err := s.exams.GetByID(ctx, actor.AcademyID, payload.ExamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrExamNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	assignment := models.ExamAssignment{
		ID:              uuid.New(),
		AcademyID:       actor.AcademyID,
		ExamID:          payload.ExamID,
		GroupID:         payload.GroupID,
		StudentID:       payload.StudentID,
		OpensAt:         payload.OpensAt.UTC(),
		ClosesAt:        payload.ClosesAt.UTC(),
		AttemptsAllowed: payload.AttemptsAllowed,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID.String()).
		Str("exam_id", assignment.ExamID.String()).
		Time("opens_at", assignment.OpensAt).
		Time("closes_at", assignment.ClosesAt).
		Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) ListByExam(ctx context.Context, actor Actor, examID uuid.UUID) ([]dto.AssignmentResponse, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	if _, err := s.exams.GetByID(ctx, actor.AcademyID, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	assignments, err := s.assignments.ListByExam(ctx, actor.AcademyID, examID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}
