// internal/recommender/profile.go
package recommender

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Track is the secondary-school stream a student graduated from.
type Track string

const (
	TrackScience    Track = "science"
	TrackComputer   Track = "computer"
	TrackAdmin      Track = "admin"
	TrackHumanities Track = "humanities"
	TrackSharia     Track = "sharia"
)

// Interest is a field of study a student can declare.
type Interest string

const (
	InterestMedicine    Interest = "medicine"
	InterestEngineering Interest = "engineering"
	InterestComputer    Interest = "computer"
	InterestScience     Interest = "science"
	InterestBusiness    Interest = "business"
	InterestHumanities  Interest = "humanities"
	InterestLaw         Interest = "law"
	InterestArts        Interest = "arts"
	InterestDentistry   Interest = "dentistry"
)

// Form keys posted by the quiz.
const (
	FormGPA       = "gpa"
	FormQudurat   = "quduratScore"
	FormTahsili   = "tahsiliScore"
	FormTrack     = "track"
	FormInterests = "interests"
)

// StudentProfile is one quiz submission. It is a value: copy it freely, never mutate it in place.
type StudentProfile struct {
	GPA                   float64           `json:"gpa"`
	Qudurat               float64           `json:"quduratScore"`
	Tahsili               float64           `json:"tahsiliScore"`
	Track                 Track             `json:"track"`
	Interests             []Interest        `json:"interests"`
	SpecializationAnswers map[string]string `json:"specializationAnswers,omitempty"`
}

// HasInterest reports whether the student declared i.
func (p StudentProfile) HasInterest(i Interest) bool {
	for _, own := range p.Interests {
		if own == i {
			return true
		}
	}
	return false
}

// Composite returns the weighted composite score for the profile.
func (p StudentProfile) Composite() float64 {
	return Composite(p.GPA, p.Qudurat, p.Tahsili, p.Track)
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseScore reads a score the way the quiz submits it: a numeric string, possibly with
// trailing junk ("95%"). Anything without a leading number, and NaN or infinities, yields 0.
func ParseScore(v interface{}) float64 {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		m := leadingNumber.FindString(strings.TrimSpace(val))
		if m == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return ParseScore(fmt.Sprint(val))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseForm converts a flat quiz form into a StudentProfile. It never fails: missing
// scores become 0 and unknown follow-up answers are kept but simply earn no boost.
// Follow-up answers are only kept for categories whose interest was selected.
func ParseForm(form map[string]interface{}) StudentProfile {
	p := StudentProfile{
		GPA:     ParseScore(form[FormGPA]),
		Qudurat: ParseScore(form[FormQudurat]),
		Tahsili: ParseScore(form[FormTahsili]),
		Track:   Track(strings.ToLower(strings.TrimSpace(stringValue(form[FormTrack])))),
	}
	p.Interests = parseInterests(form[FormInterests])

	for key, raw := range form {
		cat, ok := categoryForAnswerKey(key)
		if !ok || !p.selectsCategory(cat) {
			continue
		}
		if p.SpecializationAnswers == nil {
			p.SpecializationAnswers = make(map[string]string)
		}
		p.SpecializationAnswers[key] = normalizeAnswer(raw)
	}
	return p
}

func (p StudentProfile) selectsCategory(cat Category) bool {
	for _, i := range categoryInterests[cat] {
		if p.HasInterest(i) {
			return true
		}
	}
	return false
}

func parseInterests(v interface{}) []Interest {
	var raw []string
	switch val := v.(type) {
	case []string:
		raw = val
	case []interface{}:
		for _, item := range val {
			raw = append(raw, stringValue(item))
		}
	case string:
		raw = strings.Split(val, ",")
	}

	seen := make(map[Interest]bool, len(raw))
	out := make([]Interest, 0, len(raw))
	for _, r := range raw {
		i := Interest(strings.ToLower(strings.TrimSpace(r)))
		if i == "" || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

func normalizeAnswer(v interface{}) string {
	switch val := v.(type) {
	case bool:
		if val {
			return AnswerYes
		}
		return AnswerNo
	default:
		return strings.ToLower(strings.TrimSpace(stringValue(v)))
	}
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

