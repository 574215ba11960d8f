package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/akademia-app/exam-api/internal/models"
)

// AssignmentRepository defines persistence operations for exam assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.ExamAssignment) error
	GetByID(ctx context.Context, academyID, id uuid.UUID) (models.ExamAssignment, error)
	ListByExam(ctx context.Context, academyID, examID uuid.UUID) ([]models.ExamAssignment, error)
	HasOpenWindow(ctx context.Context, examID uuid.UUID, at time.Time) (bool, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.ExamAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, academyID, id uuid.UUID) (models.ExamAssignment, error) {
	var assignment models.ExamAssignment
	if err := r.db.WithContext(ctx).
		Where("academy_id = ?", academyID).
		First(&assignment, "id = ?", id).Error; err != nil {
		return models.ExamAssignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) ListByExam(ctx context.Context, academyID, examID uuid.UUID) ([]models.ExamAssignment, error) {
	var assignments []models.ExamAssignment
	if err := r.db.WithContext(ctx).
		Where("academy_id = ?", academyID).
		Where("exam_id = ?", examID).
		Order("created_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) HasOpenWindow(ctx context.Context, examID uuid.UUID, at time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ExamAssignment{}).
		Where("exam_id = ?", examID).
		Where("opens_at <= ? AND closes_at > ?", at, at).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
