package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/akademia-app/exam-api/internal/models"
)

// QuestionRepository is the engine's read surface over the question bank.
type QuestionRepository interface {
	GetByID(ctx context.Context, academyID, id uuid.UUID) (models.Question, error)
	GetByIDs(ctx context.Context, academyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates a GORM-backed question lookup.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) GetByID(ctx context.Context, academyID, id uuid.UUID) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).
		Where("academy_id = ?", academyID).
		First(&question, "id = ?", id).Error; err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (r *questionRepository) GetByIDs(ctx context.Context, academyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Question, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Question{}, nil
	}

	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("academy_id = ?", academyID).
		Where("id IN ?", ids).
		Find(&questions).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	return byID, nil
}
