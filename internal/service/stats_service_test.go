package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/akademia-app/exam-api/internal/models"
)

// addGradedAttempt seeds a terminal attempt with the given total directly
// into the store.
func (f *engineFixture) addGradedAttempt(total float64) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	now := time.Now().UTC()
	score := total
	id := uuid.New()
	f.store.attempts[id] = models.ExamAttempt{
		ID:           id,
		AssignmentID: f.assignmentID,
		StudentID:    uuid.New(),
		Ordinal:      1,
		State:        models.AttemptStateGraded,
		StartedAt:    now.Add(-time.Hour),
		SubmittedAt:  &now,
		TotalScore:   &score,
	}
}

func newStatsService(t *testing.T, f *engineFixture) (StatsService, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStatsService(f.attempts, f.exams, client, time.Minute, testLogger()), server
}

func TestStatsServiceForbiddenForStudents(t *testing.T) {
	f := newEngineFixture(t)
	svc, _ := newStatsService(t, f)

	_, err := svc.GetExamStats(context.Background(), f.student, f.examID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestStatsServiceUnknownExam(t *testing.T) {
	f := newEngineFixture(t)
	svc, _ := newStatsService(t, f)

	_, err := svc.GetExamStats(context.Background(), f.staff, uuid.New())
	require.ErrorIs(t, err, ErrExamNotFound)
}

func TestStatsServiceEmptyAggregate(t *testing.T) {
	f := newEngineFixture(t)
	svc, _ := newStatsService(t, f)

	stats, err := svc.GetExamStats(context.Background(), f.staff, f.examID)
	require.NoError(t, err)
	require.Zero(t, stats.AttemptCount)
	require.Zero(t, stats.MeanScore)
	require.Nil(t, stats.MinScore)
	require.Nil(t, stats.MaxScore)
	require.Equal(t, 15.0, stats.MaxPossible)
	require.Len(t, stats.Distribution, 10)
	for _, bucket := range stats.Distribution {
		require.Zero(t, bucket.Count)
	}
}

func TestStatsServiceAggregatesGradedAttempts(t *testing.T) {
	f := newEngineFixture(t)
	svc, _ := newStatsService(t, f)

	f.addGradedAttempt(0)
	f.addGradedAttempt(7.5)
	f.addGradedAttempt(15)

	stats, err := svc.GetExamStats(context.Background(), f.staff, f.examID)
	require.NoError(t, err)
	require.Equal(t, 3, stats.AttemptCount)
	require.Equal(t, 7.5, stats.MeanScore)
	require.Equal(t, 0.0, *stats.MinScore)
	require.Equal(t, 15.0, *stats.MaxScore)

	// 0 lands in the first bucket, 7.5 in the sixth, the maximum in the last.
	require.Equal(t, 1, stats.Distribution[0].Count)
	require.Equal(t, 1, stats.Distribution[5].Count)
	require.Equal(t, 1, stats.Distribution[9].Count)
}

func TestStatsServiceCacheAndInvalidation(t *testing.T) {
	f := newEngineFixture(t)
	svc, _ := newStatsService(t, f)

	f.addGradedAttempt(5)

	stats, err := svc.GetExamStats(context.Background(), f.staff, f.examID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.AttemptCount)

	// The cached aggregate keeps serving until a score write invalidates it.
	f.addGradedAttempt(10)

	cached, err := svc.GetExamStats(context.Background(), f.staff, f.examID)
	require.NoError(t, err)
	require.Equal(t, 1, cached.AttemptCount)

	svc.InvalidateExam(context.Background(), f.examID)

	fresh, err := svc.GetExamStats(context.Background(), f.staff, f.examID)
	require.NoError(t, err)
	require.Equal(t, 2, fresh.AttemptCount)
}

func TestStatsServiceCacheHitStaysTenantScoped(t *testing.T) {
	f := newEngineFixture(t)
	svc, _ := newStatsService(t, f)

	f.addGradedAttempt(5)

	// Warm the cache under the owning academy.
	stats, err := svc.GetExamStats(context.Background(), f.staff, f.examID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.AttemptCount)

	// Staff from another academy never see the cached aggregate; the exam
	// simply does not exist for them.
	foreignStaff := Actor{ID: uuid.New(), AcademyID: uuid.New(), Role: RoleAdmin}
	_, err = svc.GetExamStats(context.Background(), foreignStaff, f.examID)
	require.ErrorIs(t, err, ErrExamNotFound)
}

func TestStatsServiceSurvivesCacheOutage(t *testing.T) {
	f := newEngineFixture(t)
	svc, server := newStatsService(t, f)

	f.addGradedAttempt(5)
	server.Close()

	stats, err := svc.GetExamStats(context.Background(), f.staff, f.examID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.AttemptCount)
}

func TestBucketPlacementBoundaries(t *testing.T) {
	buckets := buildBuckets(10)
	require.Len(t, buckets, 10)

	// Upper bounds are half-open except the last bucket.
	placeInBucket(buckets, 1)
	require.Equal(t, 1, buckets[1].Count)
	placeInBucket(buckets, 9.999)
	require.Equal(t, 1, buckets[9].Count)
	placeInBucket(buckets, 10)
	require.Equal(t, 2, buckets[9].Count)
}

func TestBuildBucketsDegenerateExam(t *testing.T) {
	buckets := buildBuckets(0)
	require.Len(t, buckets, 1)
	require.Zero(t, buckets[0].LowerBound)
	require.Zero(t, buckets[0].UpperBound)
}
