package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/akademia-app/exam-api/internal/dto"
	"github.com/akademia-app/exam-api/internal/models"
	"github.com/akademia-app/exam-api/internal/repository"
)

// ExamCatalogService owns exam definitions and their ordered question lists.
type ExamCatalogService interface {
	Create(ctx context.Context, actor Actor, payload dto.ExamCreateRequest) (dto.ExamResponse, error)
	Update(ctx context.Context, actor Actor, examID uuid.UUID, payload dto.ExamUpdateRequest) (dto.ExamResponse, error)
	Get(ctx context.Context, actor Actor, examID uuid.UUID) (dto.ExamResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.ExamResponse, error)
}

type examCatalogService struct {
	exams       repository.ExamRepository
	questions   repository.QuestionRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewExamCatalogService constructs the catalog service.
func NewExamCatalogService(examRepo repository.ExamRepository, questionRepo repository.QuestionRepository, assignmentRepo repository.AssignmentRepository, validate *validator.Validate, logger zerolog.Logger) ExamCatalogService {
	return &examCatalogService{
		exams:       examRepo,
		questions:   questionRepo,
		assignments: assignmentRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "exam_catalog_service").Logger(),
		now:         time.Now,
	}
}

func (s *examCatalogService) Create(ctx context.Context, actor Actor, payload dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if !actor.IsStaff() {
		return dto.ExamResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	ids := make([]uuid.UUID, 0, len(payload.Questions))
	for _, question := range payload.Questions {
		ids = append(ids, question.QuestionID)
	}

	known, err := s.questions.GetByIDs(ctx, actor.AcademyID, ids)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return dto.ExamResponse{}, ErrQuestionNotFound
		}
	}

	questions := make([]models.ExamQuestion, 0, len(payload.Questions))
	for _, input := range payload.Questions {
		questions = append(questions, models.ExamQuestion{
			ID:         uuid.New(),
			QuestionID: input.QuestionID,
			Points:     input.Points,
			Position:   input.Position,
		})
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].Position < questions[j].Position
	})

	exam := models.Exam{
		ID:              uuid.New(),
		AcademyID:       actor.AcademyID,
		Title:           payload.Title,
		Type:            payload.Type,
		DurationMinutes: payload.DurationMinutes,
		Questions:       questions,
	}

	if err := s.exams.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	s.logger.Info().Str("exam_id", exam.ID.String()).Int("questions", len(questions)).Msg("exam created")

	return dto.NewExamResponse(exam), nil
}

func (s *examCatalogService) Update(ctx context.Context, actor Actor, examID uuid.UUID, payload dto.ExamUpdateRequest) (dto.ExamResponse, error) {
	if !actor.IsStaff() {
		return dto.ExamResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam, err := s.exams.GetByID(ctx, actor.AcademyID, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	locked, err := s.assignments.HasOpenWindow(ctx, exam.ID, s.now())
	if err != nil {
		return dto.ExamResponse{}, err
	}
	if locked {
		return dto.ExamResponse{}, ErrExamLocked
	}

	if payload.Title != nil {
		exam.Title = *payload.Title
	}
	if payload.DurationMinutes != nil {
		exam.DurationMinutes = *payload.DurationMinutes
	}

	if err := s.exams.Update(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	s.logger.Info().Str("exam_id", exam.ID.String()).Msg("exam updated")

	return dto.NewExamResponse(exam), nil
}

func (s *examCatalogService) Get(ctx context.Context, actor Actor, examID uuid.UUID) (dto.ExamResponse, error) {
	exam, err := s.exams.GetByID(ctx, actor.AcademyID, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(exam), nil
}

func (s *examCatalogService) List(ctx context.Context, actor Actor) ([]dto.ExamResponse, error) {
	exams, err := s.exams.List(ctx, actor.AcademyID)
	if err != nil {
		return nil, err
	}

	return dto.NewExamResponseSlice(exams), nil
}
