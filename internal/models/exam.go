package models

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents an assessment definition owned by one academy.
type Exam struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AcademyID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"academy_id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Type            string         `gorm:"size:32;not null" json:"type"`
	DurationMinutes int            `gorm:"not null" json:"duration_minutes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Questions       []ExamQuestion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

const (
	// ExamTypeQuiz marks a short assessment. Opaque to the engine.
	ExamTypeQuiz = "quiz"
	// ExamTypeTest marks a mid-term style assessment.
	ExamTypeTest = "test"
	// ExamTypeFinal marks an end-of-level assessment.
	ExamTypeFinal = "final"
)

// ExamQuestion binds a question-bank entry to an exam with its point value
// and presentation position.
type ExamQuestion struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExamID     uuid.UUID `gorm:"type:uuid;not null;index" json:"exam_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null" json:"question_id"`
	Points     float64   `gorm:"not null" json:"points"`
	Position   int       `gorm:"not null" json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

// MaxScore returns the maximum achievable score, the sum of all question points.
func (e Exam) MaxScore() float64 {
	var total float64
	for _, question := range e.Questions {
		total += question.Points
	}
	return total
}

// QuestionPoints maps question ids to their point values for this exam.
func (e Exam) QuestionPoints() map[uuid.UUID]float64 {
	points := make(map[uuid.UUID]float64, len(e.Questions))
	for _, question := range e.Questions {
		points[question.QuestionID] = question.Points
	}
	return points
}

// HasQuestion reports whether the exam references the given bank question.
func (e Exam) HasQuestion(questionID uuid.UUID) bool {
	for _, question := range e.Questions {
		if question.QuestionID == questionID {
			return true
		}
	}
	return false
}
