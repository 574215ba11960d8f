package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/akademia-app/exam-api/internal/dto"
	"github.com/akademia-app/exam-api/internal/models"
	"github.com/akademia-app/exam-api/internal/repository"
)

// StatsInvalidator drops cached aggregates for an exam after a score write.
type StatsInvalidator interface {
	InvalidateExam(ctx context.Context, examID uuid.UUID)
}

// GradingService computes automatic scores at submission time and accepts
// manual scores for open-form answers afterwards. Every score write recomputes
// the attempt total from scratch.
type GradingService interface {
	AutoGrader
	GradeManualAnswer(ctx context.Context, actor Actor, answerID uuid.UUID, payload dto.ManualGradeRequest) (dto.AttemptResponse, error)
}

type gradingService struct {
	attempts  repository.AttemptRepository
	exams     repository.ExamRepository
	questions repository.QuestionRepository
	validator *validator.Validate
	events    EventSink
	stats     StatsInvalidator
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(attemptRepo repository.AttemptRepository, examRepo repository.ExamRepository, questionRepo repository.QuestionRepository, validate *validator.Validate, events EventSink, stats StatsInvalidator, logger zerolog.Logger) GradingService {
	return &gradingService{
		attempts:  attemptRepo,
		exams:     examRepo,
		questions: questionRepo,
		validator: validate,
		events:    events,
		stats:     stats,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/akademia-app/exam-api/internal/service/grading"),
		logger:    logger.With().Str("component", "grading_service").Logger(),
		now:       time.Now,
	}
}

// AutoGradeSubmitted scores every ungraded closed-form answer of a submitted
// attempt against the question bank's correct-option sets as they stand right
// now; later bank edits never trigger rescoring. When no answer is left
// ungraded the attempt moves straight to graded.
func (s *gradingService) AutoGradeSubmitted(ctx context.Context, attempt *models.ExamAttempt) error {
	ctx, span := s.tracer.Start(ctx, "grading.automatic")
	span.SetAttributes(attribute.String("grading.attempt_id", attempt.ID.String()))
	defer span.End()

	academyID := attempt.Assignment.AcademyID
	exam, err := s.exams.GetByID(ctx, academyID, attempt.Assignment.ExamID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_lookup_failed")
		return err
	}

	questionIDs := make([]uuid.UUID, 0, len(exam.Questions))
	for _, question := range exam.Questions {
		questionIDs = append(questionIDs, question.QuestionID)
	}

	bank, err := s.questions.GetByIDs(ctx, academyID, questionIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "question_lookup_failed")
		return err
	}

	points := exam.QuestionPoints()
	changed := make([]models.AttemptAnswer, 0, len(attempt.Answers))
	for i := range attempt.Answers {
		answer := &attempt.Answers[i]
		if answer.Score != nil {
			continue
		}

		question, ok := bank[answer.QuestionID]
		if !ok || !question.IsClosedForm() {
			continue
		}

		score := scoreClosedForm(question.CorrectOptions, answer.Payload, points[answer.QuestionID])
		answer.Score = &score
		answer.GraderKind = models.GraderKindAutomatic
		changed = append(changed, *answer)
	}

	attempt.RecomputeTotal()
	if !hasUngradedAnswer(attempt.Answers) {
		attempt.State = models.AttemptStateGraded
	}

	if err := s.attempts.ApplyGrades(ctx, attempt, changed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_write_failed")
		return err
	}

	if attempt.State == models.AttemptStateGraded {
		s.publishGraded(ctx, exam.ID, *attempt)
	}
	s.invalidate(ctx, exam.ID)

	span.SetAttributes(
		attribute.Int("grading.auto_scored", len(changed)),
		attribute.String("grading.state", attempt.State),
	)

	return nil
}

// GradeManualAnswer stores a human-entered score and feedback for an
// open-form answer of a submitted attempt.
func (s *gradingService) GradeManualAnswer(ctx context.Context, actor Actor, answerID uuid.UUID, payload dto.ManualGradeRequest) (dto.AttemptResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.manual")
	span.SetAttributes(
		attribute.String("grading.answer_id", answerID.String()),
		attribute.String("grading.actor_id", actor.ID.String()),
	)
	defer span.End()

	if !actor.IsStaff() {
		return dto.AttemptResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AttemptResponse{}, err
	}

	answer, err := s.attempts.GetAnswer(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrAnswerNotFound
		}
		return dto.AttemptResponse{}, err
	}

	attempt, err := s.attempts.GetByID(ctx, answer.AttemptID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	if attempt.Assignment.AcademyID != actor.AcademyID {
		return dto.AttemptResponse{}, ErrAnswerNotFound
	}

	if attempt.IsInProgress() {
		return dto.AttemptResponse{}, ErrInvalidState
	}

	if answer.GraderKind == models.GraderKindAutomatic {
		return dto.AttemptResponse{}, ErrInvalidAnswerType
	}

	exam, err := s.exams.GetByID(ctx, actor.AcademyID, attempt.Assignment.ExamID)
	if err != nil {
		return dto.AttemptResponse{}, err
	}

	question, err := s.questions.GetByID(ctx, actor.AcademyID, answer.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrQuestionNotFound
		}
		return dto.AttemptResponse{}, err
	}
	if question.IsClosedForm() {
		return dto.AttemptResponse{}, ErrInvalidAnswerType
	}

	maxPoints := exam.QuestionPoints()[answer.QuestionID]
	if payload.Score < 0 || payload.Score > maxPoints {
		return dto.AttemptResponse{}, ErrScoreOutOfRange
	}

	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))

	// A verbatim retry of an applied grade is a no-op.
	if answer.Score != nil && math.Abs(*answer.Score-payload.Score) < 1e-9 && answer.Feedback == feedback {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		return dto.NewAttemptResponse(attempt), nil
	}

	var graded *models.AttemptAnswer
	for i := range attempt.Answers {
		if attempt.Answers[i].ID == answer.ID {
			graded = &attempt.Answers[i]
			break
		}
	}
	if graded == nil {
		return dto.AttemptResponse{}, ErrAnswerNotFound
	}

	score := payload.Score
	graded.Score = &score
	graded.GraderKind = models.GraderKindManual
	graded.Feedback = feedback

	attempt.RecomputeTotal()
	if !hasUngradedAnswer(attempt.Answers) {
		attempt.State = models.AttemptStateGraded
	}

	if err := s.attempts.ApplyGrades(ctx, &attempt, []models.AttemptAnswer{*graded}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_write_failed")
		return dto.AttemptResponse{}, err
	}

	s.logger.Info().
		Str("answer_id", answer.ID.String()).
		Str("attempt_id", attempt.ID.String()).
		Float64("score", payload.Score).
		Msg("manual grade applied")

	if attempt.State == models.AttemptStateGraded {
		s.publishGraded(ctx, exam.ID, attempt)
	}
	s.invalidate(ctx, exam.ID)

	span.SetAttributes(
		attribute.Float64("grading.score", payload.Score),
		attribute.String("grading.state", attempt.State),
	)

	return dto.NewAttemptResponse(attempt), nil
}

func hasUngradedAnswer(answers []models.AttemptAnswer) bool {
	for _, answer := range answers {
		if answer.Score == nil {
			return true
		}
	}
	return false
}

func (s *gradingService) publishGraded(ctx context.Context, examID uuid.UUID, attempt models.ExamAttempt) {
	if s.events == nil {
		return
	}

	s.events.Publish(ctx, AttemptEvent{
		Kind:         EventAttemptGraded,
		ExamID:       examID,
		AssignmentID: attempt.AssignmentID,
		AttemptID:    attempt.ID,
		StudentID:    attempt.StudentID,
		State:        attempt.State,
		TotalScore:   attempt.TotalScore,
		OccurredAt:   s.now().UTC(),
	})
}

func (s *gradingService) invalidate(ctx context.Context, examID uuid.UUID) {
	if s.stats != nil {
		s.stats.InvalidateExam(ctx, examID)
	}
}
