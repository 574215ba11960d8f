package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Question is the read model the engine keeps of a question-bank entry.
// The bank itself is managed elsewhere; the engine only needs the type and,
// for closed-form questions, the correct-option set.
type Question struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AcademyID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"academy_id"`
	Type           string         `gorm:"size:32;not null" json:"type"`
	Prompt         string         `gorm:"type:text" json:"prompt"`
	CorrectOptions datatypes.JSON `gorm:"type:json" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

const (
	// QuestionTypeSingleChoice is a closed-form question with one correct option.
	QuestionTypeSingleChoice = "single_choice"
	// QuestionTypeMultiChoice is a closed-form question with a correct option set.
	QuestionTypeMultiChoice = "multi_choice"
	// QuestionTypeEssay is an open-form question scored by a human grader.
	QuestionTypeEssay = "essay"
)

// IsClosedForm reports whether the question is eligible for automatic scoring.
func (q Question) IsClosedForm() bool {
	return q.Type == QuestionTypeSingleChoice || q.Type == QuestionTypeMultiChoice
}
