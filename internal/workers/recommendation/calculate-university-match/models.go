// internal/workers/recommendation/calculate-university-match/models.go
package calculateuniversitymatch

import "edupath-ksa/internal/recommender"

// Input carries either the raw survey answers or a user whose latest survey attempt is scored.
type Input struct {
	UserID  int64                  `json:"userId,omitempty"`
	Answers map[string]interface{} `json:"answers,omitempty"`
}

type Output struct {
	CompositeScore   float64                      `json:"compositeScore"`
	PerformanceLevel recommender.PerformanceLevel `json:"performanceLevel"`
	Recommendations  []recommender.Recommendation `json:"recommendations"`
	AttemptID        int64                        `json:"attemptId,omitempty"`
}
