package service

import "errors"

// Sentinel errors shared across the exam engine. Handlers translate these to
// HTTP statuses; none of them are retried internally because each is
// deterministic for a given input and store state.
var (
	// ErrExamNotFound indicates the exam does not exist or belongs to another academy.
	ErrExamNotFound = errors.New("exam not found")
	// ErrAssignmentNotFound indicates the assignment does not exist or is out of tenant scope.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrAttemptNotFound indicates the attempt does not exist or is out of tenant scope.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAnswerNotFound indicates the answer does not exist or is out of tenant scope.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrQuestionNotFound indicates a referenced question-bank entry is missing.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrForbidden indicates the caller lacks the role or tenant scope for the operation.
	ErrForbidden = errors.New("operation not permitted")
	// ErrWindowClosed indicates the operation fell outside the assignment's [open, close) window.
	ErrWindowClosed = errors.New("assignment window is closed")
	// ErrAttemptLimitExceeded indicates the student used up every allowed attempt.
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	// ErrAttemptInProgress indicates the student already has an unfinished attempt.
	ErrAttemptInProgress = errors.New("attempt already in progress")
	// ErrInvalidState indicates the attempt or answer is in the wrong lifecycle state.
	ErrInvalidState = errors.New("invalid attempt state")
	// ErrInvalidAnswerType indicates manual grading was applied to an automatically graded answer.
	ErrInvalidAnswerType = errors.New("answer is not manually gradable")
	// ErrScoreOutOfRange indicates a manual score is negative or exceeds the question's points.
	ErrScoreOutOfRange = errors.New("score out of range")
	// ErrExamLocked indicates the exam cannot be modified while an assignment window is open.
	ErrExamLocked = errors.New("exam has an open assignment window")
	// ErrAssignmentTarget indicates the assignment names no target or both targets.
	ErrAssignmentTarget = errors.New("assignment must target exactly one of group or student")
	// ErrQuestionNotInExam indicates an answer references a question outside the exam.
	ErrQuestionNotInExam = errors.New("question is not part of the exam")
)
