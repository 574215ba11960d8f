package service

import "github.com/google/uuid"

// Actor identifies the authenticated caller of an engine operation. The
// academy id scopes every query; the role gates staff-only operations.
type Actor struct {
	ID        uuid.UUID
	AcademyID uuid.UUID
	Role      string
}

// Roles recognised by the engine.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// IsStaff reports whether the actor may invoke staff-only operations.
func (a Actor) IsStaff() bool {
	return a.Role == RoleTeacher || a.Role == RoleAdmin
}
