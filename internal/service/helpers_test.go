package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/akademia-app/exam-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// memoryStore backs the repository fakes shared by the service tests. A
// single store instance is handed to every fake so cross-repository reads,
// such as attempt lookups hydrating their assignment, see one consistent
// data set.
type memoryStore struct {
	mu          sync.Mutex
	clock       int64
	questions   map[uuid.UUID]models.Question
	exams       map[uuid.UUID]models.Exam
	assignments map[uuid.UUID]models.ExamAssignment
	attempts    map[uuid.UUID]models.ExamAttempt
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		questions:   make(map[uuid.UUID]models.Question),
		exams:       make(map[uuid.UUID]models.Exam),
		assignments: make(map[uuid.UUID]models.ExamAssignment),
		attempts:    make(map[uuid.UUID]models.ExamAttempt),
	}
}

// tick returns a strictly increasing timestamp so created_at ordering is
// deterministic even when rows are inserted within the same nanosecond.
func (s *memoryStore) tick() time.Time {
	s.clock++
	return time.Unix(0, s.clock).UTC()
}

type memQuestionRepo struct {
	store *memoryStore
}

func (r *memQuestionRepo) GetByID(_ context.Context, academyID, id uuid.UUID) (models.Question, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	question, ok := r.store.questions[id]
	if !ok || question.AcademyID != academyID {
		return models.Question{}, gorm.ErrRecordNotFound
	}
	return question, nil
}

func (r *memQuestionRepo) GetByIDs(_ context.Context, academyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Question, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	found := make(map[uuid.UUID]models.Question, len(ids))
	for _, id := range ids {
		if question, ok := r.store.questions[id]; ok && question.AcademyID == academyID {
			found[id] = question
		}
	}
	return found, nil
}

type memExamRepo struct {
	store *memoryStore
}

func (r *memExamRepo) Create(_ context.Context, exam *models.Exam) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	exam.CreatedAt = r.store.tick()
	exam.UpdatedAt = exam.CreatedAt
	r.store.exams[exam.ID] = *exam
	return nil
}

func (r *memExamRepo) Update(_ context.Context, exam *models.Exam) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.exams[exam.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	exam.UpdatedAt = r.store.tick()
	r.store.exams[exam.ID] = *exam
	return nil
}

func (r *memExamRepo) GetByID(_ context.Context, academyID, id uuid.UUID) (models.Exam, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	exam, ok := r.store.exams[id]
	if !ok || exam.AcademyID != academyID {
		return models.Exam{}, gorm.ErrRecordNotFound
	}
	return exam, nil
}

func (r *memExamRepo) List(_ context.Context, academyID uuid.UUID) ([]models.Exam, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	exams := make([]models.Exam, 0)
	for _, exam := range r.store.exams {
		if exam.AcademyID == academyID {
			exams = append(exams, exam)
		}
	}
	sort.Slice(exams, func(i, j int) bool {
		return exams[i].CreatedAt.Before(exams[j].CreatedAt)
	})
	return exams, nil
}

type memAssignmentRepo struct {
	store *memoryStore
}

func (r *memAssignmentRepo) Create(_ context.Context, assignment *models.ExamAssignment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	assignment.CreatedAt = r.store.tick()
	r.store.assignments[assignment.ID] = *assignment
	return nil
}

func (r *memAssignmentRepo) GetByID(_ context.Context, academyID, id uuid.UUID) (models.ExamAssignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	assignment, ok := r.store.assignments[id]
	if !ok || assignment.AcademyID != academyID {
		return models.ExamAssignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (r *memAssignmentRepo) ListByExam(_ context.Context, academyID, examID uuid.UUID) ([]models.ExamAssignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	assignments := make([]models.ExamAssignment, 0)
	for _, assignment := range r.store.assignments {
		if assignment.AcademyID == academyID && assignment.ExamID == examID {
			assignments = append(assignments, assignment)
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].CreatedAt.Before(assignments[j].CreatedAt)
	})
	return assignments, nil
}

func (r *memAssignmentRepo) HasOpenWindow(_ context.Context, examID uuid.UUID, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, assignment := range r.store.assignments {
		if assignment.ExamID == examID && assignment.IsOpenAt(at) {
			return true, nil
		}
	}
	return false, nil
}

type memAttemptRepo struct {
	store *memoryStore
}

func (r *memAttemptRepo) Create(_ context.Context, attempt *models.ExamAttempt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	attempt.CreatedAt = r.store.tick()
	attempt.UpdatedAt = attempt.CreatedAt
	stored := *attempt
	stored.Assignment = models.ExamAssignment{}
	r.store.attempts[attempt.ID] = stored
	return nil
}

func (r *memAttemptRepo) Update(_ context.Context, attempt *models.ExamAttempt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.attempts[attempt.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.State = attempt.State
	stored.SubmittedAt = attempt.SubmittedAt
	stored.TotalScore = attempt.TotalScore
	stored.UpdatedAt = r.store.tick()
	r.store.attempts[attempt.ID] = stored
	return nil
}

func (r *memAttemptRepo) GetByID(_ context.Context, id uuid.UUID) (models.ExamAttempt, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	attempt, ok := r.store.attempts[id]
	if !ok {
		return models.ExamAttempt{}, gorm.ErrRecordNotFound
	}

	attempt.Answers = append([]models.AttemptAnswer(nil), attempt.Answers...)
	sort.Slice(attempt.Answers, func(i, j int) bool {
		return attempt.Answers[i].CreatedAt.Before(attempt.Answers[j].CreatedAt)
	})
	attempt.Assignment = r.store.assignments[attempt.AssignmentID]
	return attempt, nil
}

func (r *memAttemptRepo) CountForStudent(_ context.Context, assignmentID, studentID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var count int64
	for _, attempt := range r.store.attempts {
		if attempt.AssignmentID == assignmentID && attempt.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (r *memAttemptRepo) HasInProgress(_ context.Context, assignmentID, studentID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, attempt := range r.store.attempts {
		if attempt.AssignmentID == assignmentID && attempt.StudentID == studentID && attempt.State == models.AttemptStateInProgress {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAttemptRepo) UpsertAnswer(_ context.Context, answer *models.AttemptAnswer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	attempt, ok := r.store.attempts[answer.AttemptID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	for i := range attempt.Answers {
		if attempt.Answers[i].QuestionID == answer.QuestionID {
			attempt.Answers[i].Payload = answer.Payload
			attempt.Answers[i].UpdatedAt = r.store.tick()
			r.store.attempts[answer.AttemptID] = attempt
			return nil
		}
	}

	answer.CreatedAt = r.store.tick()
	answer.UpdatedAt = answer.CreatedAt
	attempt.Answers = append(attempt.Answers, *answer)
	r.store.attempts[answer.AttemptID] = attempt
	return nil
}

func (r *memAttemptRepo) GetAnswer(_ context.Context, id uuid.UUID) (models.AttemptAnswer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, attempt := range r.store.attempts {
		for _, answer := range attempt.Answers {
			if answer.ID == id {
				return answer, nil
			}
		}
	}
	return models.AttemptAnswer{}, gorm.ErrRecordNotFound
}

func (r *memAttemptRepo) ApplyGrades(_ context.Context, attempt *models.ExamAttempt, answers []models.AttemptAnswer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.attempts[attempt.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	for _, graded := range answers {
		for i := range stored.Answers {
			if stored.Answers[i].ID == graded.ID {
				stored.Answers[i].Score = graded.Score
				stored.Answers[i].GraderKind = graded.GraderKind
				stored.Answers[i].Feedback = graded.Feedback
				stored.Answers[i].UpdatedAt = r.store.tick()
			}
		}
	}

	stored.State = attempt.State
	stored.SubmittedAt = attempt.SubmittedAt
	stored.TotalScore = attempt.TotalScore
	stored.UpdatedAt = r.store.tick()
	r.store.attempts[attempt.ID] = stored
	return nil
}

func (r *memAttemptRepo) ListGradedByExam(_ context.Context, academyID, examID uuid.UUID) ([]models.ExamAttempt, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	attempts := make([]models.ExamAttempt, 0)
	for _, attempt := range r.store.attempts {
		assignment, ok := r.store.assignments[attempt.AssignmentID]
		if !ok || assignment.AcademyID != academyID || assignment.ExamID != examID {
			continue
		}
		if attempt.State != models.AttemptStateGraded {
			continue
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

// recordingSink captures published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []AttemptEvent
}

func (s *recordingSink) Publish(_ context.Context, event AttemptEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]string, 0, len(s.events))
	for _, event := range s.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

// countingGrader stands in for the grading service when a test only cares
// about how often automatic grading ran. It persists the submitted state the
// way the real grader does so retried submits observe it.
type countingGrader struct {
	repo  *memAttemptRepo
	mu    sync.Mutex
	calls int
}

func (g *countingGrader) AutoGradeSubmitted(ctx context.Context, attempt *models.ExamAttempt) error {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	if g.repo != nil {
		return g.repo.ApplyGrades(ctx, attempt, nil)
	}
	return nil
}

func (g *countingGrader) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type recordingInvalidator struct {
	mu    sync.Mutex
	exams []uuid.UUID
}

func (r *recordingInvalidator) InvalidateExam(_ context.Context, examID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exams = append(r.exams, examID)
}
