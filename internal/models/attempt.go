package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ExamAttempt is one student's run through an assignment's exam. Attempts move
// through a linear lifecycle: in_progress -> submitted -> graded.
type ExamAttempt struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_ordinal,priority:1" json:"assignment_id"`
	StudentID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_ordinal,priority:2" json:"student_id"`
	Ordinal      int             `gorm:"not null;uniqueIndex:idx_attempt_ordinal,priority:3" json:"ordinal"`
	State        string          `gorm:"size:32;not null;index" json:"state"`
	StartedAt    time.Time       `gorm:"not null" json:"started_at"`
	SubmittedAt  *time.Time      `json:"submitted_at"`
	TotalScore   *float64        `json:"total_score"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Answers      []AttemptAnswer `gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
	Assignment   ExamAssignment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	// AttemptStateInProgress marks an attempt that is still being worked on.
	AttemptStateInProgress = "in_progress"
	// AttemptStateSubmitted marks an attempt handed in but with manual grading pending.
	AttemptStateSubmitted = "submitted"
	// AttemptStateGraded marks a fully scored attempt. Terminal.
	AttemptStateGraded = "graded"
)

// IsInProgress reports whether answers may still be saved.
func (a ExamAttempt) IsInProgress() bool {
	return a.State == AttemptStateInProgress
}

// IsTerminal reports whether the attempt reached its final state.
func (a ExamAttempt) IsTerminal() bool {
	return a.State == AttemptStateGraded
}

// AttemptAnswer is a student's answer to one exam question within an attempt.
// The payload is an opaque structured value whose shape depends on the
// question type. Score fields are written only by the grading engine.
type AttemptAnswer struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_answer_question,priority:1" json:"attempt_id"`
	QuestionID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_answer_question,priority:2" json:"question_id"`
	Payload    datatypes.JSON `gorm:"type:json" json:"payload"`
	Score      *float64       `json:"score"`
	GraderKind string         `gorm:"size:16" json:"grader_kind"`
	Feedback   string         `gorm:"type:text" json:"feedback"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

const (
	// GraderKindAutomatic marks a score computed by the engine at submission.
	GraderKindAutomatic = "automatic"
	// GraderKindManual marks a score entered by staff after submission.
	GraderKindManual = "manual"
)

// IsGraded reports whether a score has been recorded for the answer.
func (a AttemptAnswer) IsGraded() bool {
	return a.Score != nil
}

// RecomputeTotal sums all non-null answer scores. The result replaces any
// previously stored total rather than being accumulated incrementally.
func (a *ExamAttempt) RecomputeTotal() {
	var total float64
	var graded bool
	for _, answer := range a.Answers {
		if answer.Score != nil {
			total += *answer.Score
			graded = true
		}
	}
	if graded {
		a.TotalScore = &total
	} else {
		a.TotalScore = nil
	}
}
