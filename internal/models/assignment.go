package models

import (
	"time"

	"github.com/google/uuid"
)

// ExamAssignment binds an exam to a group or an individual student with a
// time window and an attempt limit. Assignments are immutable once created.
type ExamAssignment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AcademyID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"academy_id"`
	ExamID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"exam_id"`
	GroupID         *uuid.UUID `gorm:"type:uuid" json:"group_id"`
	StudentID       *uuid.UUID `gorm:"type:uuid" json:"student_id"`
	OpensAt         time.Time  `gorm:"not null" json:"opens_at"`
	ClosesAt        time.Time  `gorm:"not null" json:"closes_at"`
	AttemptsAllowed int        `gorm:"not null" json:"attempts_allowed"`
	CreatedAt       time.Time  `json:"created_at"`
	Exam            Exam       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsOpenAt reports whether the instant falls inside the [opens_at, closes_at) window.
func (a ExamAssignment) IsOpenAt(reference time.Time) bool {
	return !reference.Before(a.OpensAt) && reference.Before(a.ClosesAt)
}

// IsClosedAt reports whether the window has already expired at the instant.
func (a ExamAssignment) IsClosedAt(reference time.Time) bool {
	return !reference.Before(a.ClosesAt)
}

// TargetsStudent reports whether the assignment is addressed to the student,
// either directly or via group targeting. Group membership itself is resolved
// by the identity service before the request reaches the engine.
func (a ExamAssignment) TargetsStudent(studentID uuid.UUID) bool {
	if a.StudentID != nil {
		return *a.StudentID == studentID
	}
	return a.GroupID != nil
}
