// internal/workers/admission/predict-rank/models.go
package predictrank

import "counseling-workers/internal/models"

// Input carries the raw exam result. Score is a pointer so a missing
// score is distinguishable from a legitimate zero.
type Input struct {
	ExamType models.ExamType `json:"examType"`
	Score    *float64        `json:"score"`
	Category models.Category `json:"category"`
}

// RankRange brackets the predicted rank with a plus/minus ten percent
// window, both bounds clamped to at least 1.
type RankRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type Output struct {
	ExamType      models.ExamType `json:"examType"`
	Score         float64         `json:"score"`
	Category      models.Category `json:"category"`
	PredictedRank int             `json:"predictedRank"`
	RankRange     RankRange       `json:"rankRange"`
}
