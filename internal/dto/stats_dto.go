package dto

import "github.com/google/uuid"

// ScoreBucket is one slice of the fixed score distribution.
type ScoreBucket struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	Count      int     `json:"count"`
}

// ExamStatsResponse aggregates graded attempts for one exam. An exam with no
// graded attempts yields a zero aggregate with null min/max.
type ExamStatsResponse struct {
	ExamID       uuid.UUID     `json:"exam_id"`
	MaxPossible  float64       `json:"max_possible"`
	AttemptCount int           `json:"attempt_count"`
	MeanScore    float64       `json:"mean_score"`
	MinScore     *float64      `json:"min_score"`
	MaxScore     *float64      `json:"max_score"`
	Distribution []ScoreBucket `json:"distribution"`
}
