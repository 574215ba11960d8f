package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/akademia-app/exam-api/internal/models"
)

// ExamRepository defines persistence operations for exams and their questions.
type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, academyID, id uuid.UUID) (models.Exam, error)
	List(ctx context.Context, academyID uuid.UUID) ([]models.Exam, error)
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates a GORM-backed repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Exam{}).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Save(exam).Error
}

func (r *examRepository) GetByID(ctx context.Context, academyID, id uuid.UUID) (models.Exam, error) {
	var exam models.Exam
	if err := r.baseQuery(ctx).
		Where("academy_id = ?", academyID).
		First(&exam, "id = ?", id).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) List(ctx context.Context, academyID uuid.UUID) ([]models.Exam, error) {
	var exams []models.Exam
	if err := r.baseQuery(ctx).
		Where("academy_id = ?", academyID).
		Order("created_at DESC").
		Find(&exams).Error; err != nil {
		return nil, err
	}

	return exams, nil
}
