package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/akademia-app/exam-api/internal/dto"
	"github.com/akademia-app/exam-api/internal/models"
	"github.com/akademia-app/exam-api/internal/repository"
)

// AutoGrader scores the closed-form answers of a freshly submitted attempt.
// Implemented by the grading service.
type AutoGrader interface {
	AutoGradeSubmitted(ctx context.Context, attempt *models.ExamAttempt) error
}

// AttemptService drives the attempt state machine: start, answer upserts and
// submission. Window and limit checks read the clock once per operation.
type AttemptService interface {
	Start(ctx context.Context, actor Actor, assignmentID uuid.UUID) (dto.AttemptResponse, error)
	Get(ctx context.Context, actor Actor, attemptID uuid.UUID) (dto.AttemptResponse, error)
	SaveAnswers(ctx context.Context, actor Actor, attemptID uuid.UUID, payload dto.SaveAnswersRequest) error
	Submit(ctx context.Context, actor Actor, attemptID uuid.UUID) (dto.AttemptResponse, error)
}

type attemptService struct {
	attempts    repository.AttemptRepository
	assignments repository.AssignmentRepository
	exams       repository.ExamRepository
	grader      AutoGrader
	events      EventSink
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	locks       *keyedMutex
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAttemptService constructs an AttemptService instance.
func NewAttemptService(attemptRepo repository.AttemptRepository, assignmentRepo repository.AssignmentRepository, examRepo repository.ExamRepository, grader AutoGrader, events EventSink, validate *validator.Validate, logger zerolog.Logger) AttemptService {
	return &attemptService{
		attempts:    attemptRepo,
		assignments: assignmentRepo,
		exams:       examRepo,
		grader:      grader,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		locks:       newKeyedMutex(),
		logger:      logger.With().Str("component", "attempt_service").Logger(),
		now:         time.Now,
	}
}

func attemptLockKey(assignmentID, studentID uuid.UUID) string {
	return assignmentID.String() + ":" + studentID.String()
}

func (s *attemptService) Start(ctx context.Context, actor Actor, assignmentID uuid.UUID) (dto.AttemptResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, actor.AcademyID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrAssignmentNotFound
		}
		return dto.AttemptResponse{}, err
	}

	if !assignment.TargetsStudent(actor.ID) {
		return dto.AttemptResponse{}, ErrForbidden
	}

	now := s.now().UTC()
	if !assignment.IsOpenAt(now) {
		return dto.AttemptResponse{}, ErrWindowClosed
	}

	unlock := s.locks.lock(attemptLockKey(assignment.ID, actor.ID))
	defer unlock()

	// The open-attempt guard runs first: while an attempt is in flight the
	// caller gets the in-progress conflict, not the limit one.
	inProgress, err := s.attempts.HasInProgress(ctx, assignment.ID, actor.ID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}
	if inProgress {
		return dto.AttemptResponse{}, ErrAttemptInProgress
	}

	count, err := s.attempts.CountForStudent(ctx, assignment.ID, actor.ID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}
	if count >= int64(assignment.AttemptsAllowed) {
		return dto.AttemptResponse{}, ErrAttemptLimitExceeded
	}

	attempt := models.ExamAttempt{
		ID:           uuid.New(),
		AssignmentID: assignment.ID,
		StudentID:    actor.ID,
		Ordinal:      int(count) + 1,
		State:        models.AttemptStateInProgress,
		StartedAt:    now,
	}

	if err := s.attempts.Create(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	s.logger.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("assignment_id", assignment.ID.String()).
		Int("ordinal", attempt.Ordinal).
		Msg("attempt started")

	s.publish(ctx, EventAttemptStarted, assignment.ExamID, attempt)

	return dto.NewAttemptResponse(attempt), nil
}

func (s *attemptService) Get(ctx context.Context, actor Actor, attemptID uuid.UUID) (dto.AttemptResponse, error) {
	attempt, err := s.loadOwned(ctx, actor, attemptID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	return dto.NewAttemptResponse(attempt), nil
}

func (s *attemptService) SaveAnswers(ctx context.Context, actor Actor, attemptID uuid.UUID, payload dto.SaveAnswersRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	attempt, err := s.loadOwned(ctx, actor, attemptID)
	if err != nil {
		return err
	}

	if !attempt.IsInProgress() {
		return ErrInvalidState
	}

	now := s.now().UTC()
	if attempt.Assignment.IsClosedAt(now) {
		return ErrWindowClosed
	}

	exam, err := s.exams.GetByID(ctx, actor.AcademyID, attempt.Assignment.ExamID)
	if err != nil {
		return err
	}

	for _, input := range payload.Answers {
		if !exam.HasQuestion(input.QuestionID) {
			return ErrQuestionNotInExam
		}
	}

	for _, input := range payload.Answers {
		answer := models.AttemptAnswer{
			ID:         uuid.New(),
			AttemptID:  attempt.ID,
			QuestionID: input.QuestionID,
			Payload:    s.sanitizePayload(input.Payload),
		}
		if err := s.attempts.UpsertAnswer(ctx, &answer); err != nil {
			return err
		}
	}

	s.publish(ctx, EventAttemptAnswerSaved, attempt.Assignment.ExamID, attempt)

	return nil
}

func (s *attemptService) Submit(ctx context.Context, actor Actor, attemptID uuid.UUID) (dto.AttemptResponse, error) {
	attempt, err := s.loadOwned(ctx, actor, attemptID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	unlock := s.locks.lock(attemptLockKey(attempt.AssignmentID, attempt.StudentID))
	defer unlock()

	// Reload under the lock so a concurrent submit is observed.
	attempt, err = s.loadOwned(ctx, actor, attemptID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	// Retried submits return the current attempt without re-grading.
	if !attempt.IsInProgress() {
		return dto.NewAttemptResponse(attempt), nil
	}

	now := s.now().UTC()
	attempt.State = models.AttemptStateSubmitted
	attempt.SubmittedAt = &now

	if err := s.grader.AutoGradeSubmitted(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	s.logger.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("state", attempt.State).
		Msg("attempt submitted")

	s.publish(ctx, EventAttemptSubmitted, attempt.Assignment.ExamID, attempt)

	return dto.NewAttemptResponse(attempt), nil
}

// loadOwned fetches an attempt and enforces tenant scope plus student
// ownership. Staff callers within the tenant may read any attempt.
func (s *attemptService) loadOwned(ctx context.Context, actor Actor, attemptID uuid.UUID) (models.ExamAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ExamAttempt{}, ErrAttemptNotFound
		}
		return models.ExamAttempt{}, err
	}

	if attempt.Assignment.AcademyID != actor.AcademyID {
		return models.ExamAttempt{}, ErrAttemptNotFound
	}

	if attempt.StudentID != actor.ID && !actor.IsStaff() {
		return models.ExamAttempt{}, ErrForbidden
	}

	return attempt, nil
}

// sanitizePayload strips markup from free-text answers. Closed-form payloads
// carry only option ids and pass through unchanged.
func (s *attemptService) sanitizePayload(raw json.RawMessage) datatypes.JSON {
	text := decodeAnswerText(datatypes.JSON(raw))
	if text == "" {
		return datatypes.JSON(raw)
	}

	clean := s.sanitizer.Sanitize(text)
	if clean == text {
		return datatypes.JSON(raw)
	}

	encoded, err := json.Marshal(textPayload{Text: clean})
	if err != nil {
		return datatypes.JSON(raw)
	}

	return datatypes.JSON(encoded)
}

func (s *attemptService) publish(ctx context.Context, kind string, examID uuid.UUID, attempt models.ExamAttempt) {
	if s.events == nil {
		return
	}

	s.events.Publish(ctx, AttemptEvent{
		Kind:         kind,
		ExamID:       examID,
		AssignmentID: attempt.AssignmentID,
		AttemptID:    attempt.ID,
		StudentID:    attempt.StudentID,
		State:        attempt.State,
		TotalScore:   attempt.TotalScore,
		OccurredAt:   s.now().UTC(),
	})
}
