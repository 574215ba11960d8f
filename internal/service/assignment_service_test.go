package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/akademia-app/exam-api/internal/dto"
)

func newAssignmentService(f *engineFixture) AssignmentService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewAssignmentService(f.assignments, f.exams, validate, testLogger())
}

func validAssignmentRequest(f *engineFixture) dto.AssignmentCreateRequest {
	groupID := uuid.New()
	now := time.Now().UTC()
	return dto.AssignmentCreateRequest{
		ExamID:          f.examID,
		GroupID:         &groupID,
		OpensAt:         now.Add(time.Hour),
		ClosesAt:        now.Add(2 * time.Hour),
		AttemptsAllowed: 3,
	}
}

func TestAssignmentServiceCreate(t *testing.T) {
	f := newEngineFixture(t)
	svc := newAssignmentService(f)

	payload := validAssignmentRequest(f)
	created, err := svc.Create(context.Background(), f.staff, payload)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, f.examID, created.ExamID)
	require.Equal(t, payload.GroupID, created.GroupID)
	require.Nil(t, created.StudentID)
	require.Equal(t, 3, created.AttemptsAllowed)
	require.Equal(t, time.UTC, created.OpensAt.Location())
}

func TestAssignmentServiceCreateForbiddenForStudents(t *testing.T) {
	f := newEngineFixture(t)
	svc := newAssignmentService(f)

	_, err := svc.Create(context.Background(), f.student, validAssignmentRequest(f))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAssignmentServiceCreateRequiresExactlyOneTarget(t *testing.T) {
	f := newEngineFixture(t)
	svc := newAssignmentService(f)

	neither := validAssignmentRequest(f)
	neither.GroupID = nil
	_, err := svc.Create(context.Background(), f.staff, neither)
	require.ErrorIs(t, err, ErrAssignmentTarget)

	both := validAssignmentRequest(f)
	studentID := uuid.New()
	both.StudentID = &studentID
	_, err = svc.Create(context.Background(), f.staff, both)
	require.ErrorIs(t, err, ErrAssignmentTarget)
}

func TestAssignmentServiceCreateRejectsInvertedWindow(t *testing.T) {
	f := newEngineFixture(t)
	svc := newAssignmentService(f)

	payload := validAssignmentRequest(f)
	payload.OpensAt, payload.ClosesAt = payload.ClosesAt, payload.OpensAt
	_, err := svc.Create(context.Background(), f.staff, payload)
	require.ErrorIs(t, err, ErrWindowOrder)
}

func TestAssignmentServiceCreateValidatesAttemptLimit(t *testing.T) {
	f := newEngineFixture(t)
	svc := newAssignmentService(f)

	payload := validAssignmentRequest(f)
	payload.AttemptsAllowed = 0
	_, err := svc.Create(context.Background(), f.staff, payload)
	require.Error(t, err)

	payload.AttemptsAllowed = 6
	_, err = svc.Create(context.Background(), f.staff, payload)
	require.Error(t, err)
}

func TestAssignmentServiceCreateUnknownExam(t *testing.T) {
	f := newEngineFixture(t)
	svc := newAssignmentService(f)

	payload := validAssignmentRequest(f)
	payload.ExamID = uuid.New()
	_, err := svc.Create(context.Background(), f.staff, payload)
	require.ErrorIs(t, err, ErrExamNotFound)
}

func TestAssignmentServiceListByExam(t *testing.T) {
	f := newEngineFixture(t)
	svc := newAssignmentService(f)

	first, err := svc.Create(context.Background(), f.staff, validAssignmentRequest(f))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), f.staff, validAssignmentRequest(f))
	require.NoError(t, err)

	listed, err := svc.ListByExam(context.Background(), f.staff, f.examID)
	require.NoError(t, err)
	// The fixture seeds one assignment of its own.
	require.Len(t, listed, 3)
	require.Equal(t, first.ID, listed[1].ID)
	require.Equal(t, second.ID, listed[2].ID)

	_, err = svc.ListByExam(context.Background(), f.student, f.examID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListByExam(context.Background(), f.staff, uuid.New())
	require.ErrorIs(t, err, ErrExamNotFound)
}
