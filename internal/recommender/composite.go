// internal/recommender/composite.go
package recommender

// Composite weights GPA, GAT (Qudurat) and Tahsili into one 0-100 style score.
// Science and computer tracks lean on Tahsili; every other track, including an
// unknown one, leans on GPA and GAT. Inputs are not clamped.
func Composite(gpa, gat, tahsili float64, track Track) float64 {
	switch track {
	case TrackScience, TrackComputer:
		return gpa*0.30 + gat*0.30 + tahsili*0.40
	default:
		return gpa*0.40 + gat*0.40 + tahsili*0.20
	}
}

// PerformanceLevel buckets a composite score for the results page.
type PerformanceLevel string

const (
	LevelExcellentPlus PerformanceLevel = "excellent_plus"
	LevelExcellent     PerformanceLevel = "excellent"
	LevelVeryGood      PerformanceLevel = "very_good"
	LevelGood          PerformanceLevel = "good"
)

func Performance(composite float64) PerformanceLevel {
	switch {
	case composite >= 90:
		return LevelExcellentPlus
	case composite >= 80:
		return LevelExcellent
	case composite >= 70:
		return LevelVeryGood
	default:
		return LevelGood
	}
}
