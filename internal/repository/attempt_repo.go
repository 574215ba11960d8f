package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akademia-app/exam-api/internal/models"
)

// AttemptRepository defines persistence operations for attempts and answers.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.ExamAttempt) error
	Update(ctx context.Context, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, id uuid.UUID) (models.ExamAttempt, error)
	CountForStudent(ctx context.Context, assignmentID, studentID uuid.UUID) (int64, error)
	HasInProgress(ctx context.Context, assignmentID, studentID uuid.UUID) (bool, error)
	UpsertAnswer(ctx context.Context, answer *models.AttemptAnswer) error
	GetAnswer(ctx context.Context, id uuid.UUID) (models.AttemptAnswer, error)
	ApplyGrades(ctx context.Context, attempt *models.ExamAttempt, answers []models.AttemptAnswer) error
	ListGradedByExam(ctx context.Context, academyID, examID uuid.UUID) ([]models.ExamAttempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository instantiates the repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ExamAttempt{}).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Assignment")
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) Update(ctx context.Context, attempt *models.ExamAttempt) error {
	return r.db.WithContext(ctx).Omit("Answers", "Assignment").Save(attempt).Error
}

func (r *attemptRepository) GetByID(ctx context.Context, id uuid.UUID) (models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := r.baseQuery(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return models.ExamAttempt{}, err
	}

	return attempt, nil
}

func (r *attemptRepository) CountForStudent(ctx context.Context, assignmentID, studentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ExamAttempt{}).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *attemptRepository) HasInProgress(ctx context.Context, assignmentID, studentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ExamAttempt{}).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		Where("state = ?", models.AttemptStateInProgress).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// UpsertAnswer inserts the answer or, when a row already exists for the same
// (attempt, question) pair, replaces its payload. Last writer wins.
func (r *attemptRepository) UpsertAnswer(ctx context.Context, answer *models.AttemptAnswer) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(answer).Error
}

func (r *attemptRepository) GetAnswer(ctx context.Context, id uuid.UUID) (models.AttemptAnswer, error) {
	var answer models.AttemptAnswer
	if err := r.db.WithContext(ctx).First(&answer, "id = ?", id).Error; err != nil {
		return models.AttemptAnswer{}, err
	}

	return answer, nil
}

// ApplyGrades persists score writes and the recomputed attempt total in a
// single transaction so readers never observe a partially applied grading.
func (r *attemptRepository) ApplyGrades(ctx context.Context, attempt *models.ExamAttempt, answers []models.AttemptAnswer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range answers {
			if err := tx.Model(&models.AttemptAnswer{}).
				Where("id = ?", answers[i].ID).
				Updates(map[string]interface{}{
					"score":       answers[i].Score,
					"grader_kind": answers[i].GraderKind,
					"feedback":    answers[i].Feedback,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.ExamAttempt{}).
			Where("id = ?", attempt.ID).
			Updates(map[string]interface{}{
				"state":        attempt.State,
				"submitted_at": attempt.SubmittedAt,
				"total_score":  attempt.TotalScore,
			}).Error
	})
}

func (r *attemptRepository) ListGradedByExam(ctx context.Context, academyID, examID uuid.UUID) ([]models.ExamAttempt, error) {
	var attempts []models.ExamAttempt
	if err := r.db.WithContext(ctx).Model(&models.ExamAttempt{}).
		Joins("JOIN exam_assignments ON exam_assignments.id = exam_attempts.assignment_id").
		Where("exam_assignments.academy_id = ?", academyID).
		Where("exam_assignments.exam_id = ?", examID).
		Where("exam_attempts.state = ?", models.AttemptStateGraded).
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}
