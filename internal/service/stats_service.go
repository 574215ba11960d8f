package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/akademia-app/exam-api/internal/dto"
	"github.com/akademia-app/exam-api/internal/repository"
)

const statsBucketCount = 10

// StatsService computes per-exam descriptive statistics over graded attempts.
// Read-only; results are cached in redis and invalidated on score writes.
type StatsService interface {
	GetExamStats(ctx context.Context, actor Actor, examID uuid.UUID) (dto.ExamStatsResponse, error)
	InvalidateExam(ctx context.Context, examID uuid.UUID)
}

type statsService struct {
	attempts repository.AttemptRepository
	exams    repository.ExamRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewStatsService builds the stats aggregator.
func NewStatsService(attemptRepo repository.AttemptRepository, examRepo repository.ExamRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatsService {
	return &statsService{
		attempts: attemptRepo,
		exams:    examRepo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "stats_service").Logger(),
	}
}

func statsCacheKey(examID uuid.UUID) string {
	return fmt.Sprintf("exam:stats:%s", examID)
}

func (s *statsService) GetExamStats(ctx context.Context, actor Actor, examID uuid.UUID) (dto.ExamStatsResponse, error) {
	if !actor.IsStaff() {
		return dto.ExamStatsResponse{}, ErrForbidden
	}

	// The exam lookup is scoped to the caller's academy and must precede the
	// cache read: a warm cache entry never serves an exam the caller cannot see.
	exam, err := s.exams.GetByID(ctx, actor.AcademyID, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamStatsResponse{}, ErrExamNotFound
		}
		return dto.ExamStatsResponse{}, err
	}

	cacheKey := statsCacheKey(examID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ExamStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("exam_id", examID.String()).Msg("stats cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
		}
	}

	attempts, err := s.attempts.ListGradedByExam(ctx, actor.AcademyID, examID)
	if err != nil {
		return dto.ExamStatsResponse{}, err
	}

	response := dto.ExamStatsResponse{
		ExamID:       exam.ID,
		MaxPossible:  exam.MaxScore(),
		Distribution: buildBuckets(exam.MaxScore()),
	}

	var sum float64
	for _, attempt := range attempts {
		if attempt.TotalScore == nil {
			continue
		}
		score := *attempt.TotalScore
		response.AttemptCount++
		sum += score

		if response.MinScore == nil || score < *response.MinScore {
			value := score
			response.MinScore = &value
		}
		if response.MaxScore == nil || score > *response.MaxScore {
			value := score
			response.MaxScore = &value
		}

		placeInBucket(response.Distribution, score)
	}

	if response.AttemptCount > 0 {
		response.MeanScore = sum / float64(response.AttemptCount)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
			}
		}
	}

	return response, nil
}

// InvalidateExam drops the cached aggregate after a score write.
func (s *statsService) InvalidateExam(ctx context.Context, examID uuid.UUID) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, statsCacheKey(examID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("exam_id", examID.String()).Msg("failed to invalidate stats cache")
	}
}

// buildBuckets splits [0, maxScore] into ten equal slices. An exam whose
// questions sum to zero points gets a single degenerate bucket.
func buildBuckets(maxScore float64) []dto.ScoreBucket {
	if maxScore <= 0 {
		return []dto.ScoreBucket{{LowerBound: 0, UpperBound: 0}}
	}

	width := maxScore / statsBucketCount
	buckets := make([]dto.ScoreBucket, statsBucketCount)
	for i := range buckets {
		buckets[i] = dto.ScoreBucket{
			LowerBound: width * float64(i),
			UpperBound: width * float64(i+1),
		}
	}
	return buckets
}

// placeInBucket counts the score into its slice. Buckets are half-open on the
// upper bound except the last, which includes the maximum score.
func placeInBucket(buckets []dto.ScoreBucket, score float64) {
	for i := range buckets {
		last := i == len(buckets)-1
		if score >= buckets[i].LowerBound && (score < buckets[i].UpperBound || (last && score <= buckets[i].UpperBound)) {
			buckets[i].Count++
			return
		}
	}
}
