// internal/advisor/sanitize.go
package advisor

import (
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	strmetrics "github.com/adrg/strutil/metrics"
)

const (
	maxLabelWords      = 3
	similarityRequired = 0.85
	generalDoctor      = "General Doctor"
)

// KnownMajors are the labels the advisor prefers to answer with.
var KnownMajors = []string{
	"General Doctor", "Dentistry", "Pharmacy", "Nursing",
	"Mechanical Engineer", "Electrical Engineer", "Civil Engineer",
	"Computer Science", "Cybersecurity", "Data Science",
	"Business Administration", "Finance", "Accounting",
	"English Literature", "Law", "Sharia", "Humanities",
	"Design", "Interior Design",
}

var (
	lineBreaks  = regexp.MustCompile(`[\r\n]+`)
	notLabel    = regexp.MustCompile(`[^\p{L}\p{Nd}\- ]+`)
	extraSpaces = regexp.MustCompile(` {2,}`)
)

// Sanitize reduces a free-form model answer to a short major label.
// It returns "" when nothing usable is left.
func Sanitize(text string) string {
	clean := strings.TrimSpace(text)
	clean = lineBreaks.ReplaceAllString(clean, " ")
	clean = notLabel.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(extraSpaces.ReplaceAllString(clean, " "))
	if clean == "" {
		return ""
	}

	words := strings.Split(clean, " ")
	if len(words) > maxLabelWords {
		words = words[:maxLabelWords]
	}
	clean = strings.Join(words, " ")

	lower := strings.ToLower(clean)
	if strings.Contains(lower, "doctor") || strings.Contains(lower, "medicin") {
		return generalDoctor
	}
	return clean
}

// Canonical snaps label onto the closest known major when the Jaro-Winkler
// similarity clears the threshold, and returns it unchanged otherwise.
func Canonical(label string) string {
	if label == "" {
		return ""
	}
	metric := strmetrics.NewJaroWinkler()
	normalized := strings.ToLower(strings.ReplaceAll(label, "-", " "))

	best, bestScore := "", 0.0
	for _, known := range KnownMajors {
		score := strutil.Similarity(normalized, strings.ToLower(known), metric)
		if score > bestScore {
			best, bestScore = known, score
		}
	}
	if bestScore >= similarityRequired {
		return best
	}
	return label
}
