// internal/recommender/match.go
package recommender

import (
	"math"
	"sort"
	"strconv"
)

const (
	// DefaultTopN is how many recommendations a run returns.
	DefaultTopN = 10

	matchBaseline = 70.0
	interestBoost = 15.0
)

// Recommendation is one eligible (university, major) pair with its match percentage.
type Recommendation struct {
	University      string         `json:"university"`
	City            string         `json:"city"`
	Type            UniversityType `json:"type"`
	Major           string         `json:"major"`
	MinScore        int            `json:"minScore"`
	StudentScore    string         `json:"studentScore"`
	MatchPercentage int            `json:"matchPercentage"`
	HasInterest     bool           `json:"hasInterest"`
}

// MatchPercentage scores how comfortably studentScore clears minScore. Meeting the bar
// exactly yields 70; a declared interest adds 15 and the specialization boost is added
// on top. The result is rounded half up and capped at 100. minScore must be positive.
func MatchPercentage(studentScore float64, minScore int, hasInterest bool, boost int) int {
	bar := float64(minScore)
	scoreMatch := math.Min(100, (studentScore-bar)/bar*100+matchBaseline)

	total := scoreMatch + float64(boost)
	if hasInterest {
		total += interestBoost
	}

	rounded := math.Floor(total + 0.5)
	if rounded > 100 {
		return 100
	}
	return int(rounded)
}

// MatchMajors walks the catalog in order, keeps every major the student's composite and
// track qualify for, scores it, and returns the best topN by match percentage. Ties keep
// catalog order. A topN of zero or less means DefaultTopN.
func MatchMajors(composite float64, interests []Interest, track Track, answers map[string]string, catalog *Catalog, topN int) []Recommendation {
	if topN <= 0 {
		topN = DefaultTopN
	}

	studentScore := strconv.FormatFloat(composite, 'f', 2, 64)
	out := make([]Recommendation, 0)

	for _, uni := range catalog.Universities {
		for _, major := range uni.Majors {
			if composite < float64(major.MinScore) {
				continue
			}
			if !major.AcceptsTrack(track) {
				continue
			}

			hasInterest := major.MatchesAny(interests)
			boost := SpecializationBoost(major.Name, answers)

			out = append(out, Recommendation{
				University:      uni.Name,
				City:            uni.City,
				Type:            uni.Type,
				Major:           major.Name,
				MinScore:        major.MinScore,
				StudentScore:    studentScore,
				MatchPercentage: MatchPercentage(composite, major.MinScore, hasInterest, boost),
				HasInterest:     hasInterest,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchPercentage > out[j].MatchPercentage
	})

	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
