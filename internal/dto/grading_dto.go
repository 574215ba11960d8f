package dto

// ManualGradeRequest is the staff payload for scoring an open-form answer.
// The upper score bound is the question's point value and is enforced by the
// grading service, not by a static tag.
type ManualGradeRequest struct {
	Score    float64 `json:"score" validate:"gte=0"`
	Feedback string  `json:"feedback" validate:"max=4000"`
}
