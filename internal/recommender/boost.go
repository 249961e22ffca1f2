// internal/recommender/boost.go
package recommender

import "strings"

// Category groups majors that share a follow-up questionnaire.
type Category string

const (
	CategoryComputer    Category = "computer"
	CategoryMedicine    Category = "medicine"
	CategoryEngineering Category = "engineering"
	CategoryBusiness    Category = "business"
	CategoryLaw         Category = "law"
	CategoryArts        Category = "arts"
)

// Answer levels accepted from the follow-up questions.
const (
	AnswerHigh   = "high"
	AnswerMedium = "medium"
	AnswerLow    = "low"
	AnswerYes    = "yes"
	AnswerNo     = "no"
)

// categoryOrder fixes iteration order so classification output is deterministic.
var categoryOrder = []Category{
	CategoryComputer,
	CategoryMedicine,
	CategoryEngineering,
	CategoryBusiness,
	CategoryLaw,
	CategoryArts,
}

// categoryKeywords are matched as substrings of the major name; the Latin ones case-insensitively.
var categoryKeywords = map[Category][]string{
	CategoryComputer:    {"حاسب", "computer"},
	CategoryMedicine:    {"طب", "أسنان", "dent"},
	CategoryEngineering: {"هندسة", "engineer"},
	CategoryBusiness:    {"إدارة", "اقتصاد", "business"},
	CategoryLaw:         {"قانون", "شريعة", "law"},
	CategoryArts:        {"تصميم", "فنون", "design"},
}

// categoryInterests lists the interests that unlock a category's follow-up questions.
var categoryInterests = map[Category][]Interest{
	CategoryComputer:    {InterestComputer},
	CategoryMedicine:    {InterestMedicine, InterestDentistry},
	CategoryEngineering: {InterestEngineering},
	CategoryBusiness:    {InterestBusiness},
	CategoryLaw:         {InterestLaw},
	CategoryArts:        {InterestArts},
}

// questionPoints maps an answer level to the points it earns.
type questionPoints map[string]int

var (
	ordinalLarge  = questionPoints{AnswerHigh: 6, AnswerMedium: 3}
	ordinalMiddle = questionPoints{AnswerHigh: 5, AnswerMedium: 3}
	ordinalSmall  = questionPoints{AnswerHigh: 4, AnswerMedium: 2}
)

// boostTables holds the per-category point tables. These are tuning constants.
var boostTables = map[Category]map[string]questionPoints{
	CategoryComputer: {
		"csProblemSolving": ordinalLarge,
		"csProjects":       {AnswerYes: 4},
		"csMathComfort":    {AnswerHigh: 3, AnswerMedium: 1},
	},
	CategoryMedicine: {
		"medBioInterest": ordinalLarge,
		"medPatientCare": ordinalSmall,
		"medLongStudy":   {AnswerYes: 3},
	},
	CategoryEngineering: {
		"engHandsOn":      ordinalLarge,
		"engPhysics":      ordinalSmall,
		"engTeamProjects": {AnswerYes: 3},
	},
	CategoryBusiness: {
		"busLeadership":   ordinalMiddle,
		"busNumbers":      ordinalSmall,
		"busEntrepreneur": {AnswerYes: 3},
	},
	CategoryLaw: {
		"lawReading": ordinalMiddle,
		"lawDebate":  ordinalSmall,
	},
	CategoryArts: {
		"artsCreativity": ordinalLarge,
		"artsPortfolio":  {AnswerYes: 4},
	},
}

// Classify returns every category whose keywords occur in majorName, in a fixed order.
func Classify(majorName string) []Category {
	lower := strings.ToLower(majorName)
	var out []Category
	for _, cat := range categoryOrder {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lower, kw) {
				out = append(out, cat)
				break
			}
		}
	}
	return out
}

// SpecializationBoost sums the follow-up points of every category the major belongs to.
// Missing, unknown and negative answers score nothing; the result is never negative.
func SpecializationBoost(majorName string, answers map[string]string) int {
	if len(answers) == 0 {
		return 0
	}
	total := 0
	for _, cat := range Classify(majorName) {
		for question, points := range boostTables[cat] {
			total += points[canonicalAnswer(answers[question])]
		}
	}
	return total
}

func canonicalAnswer(a string) string {
	switch strings.ToLower(strings.TrimSpace(a)) {
	case AnswerHigh:
		return AnswerHigh
	case AnswerMedium:
		return AnswerMedium
	case AnswerYes, "true", "1", "نعم":
		return AnswerYes
	default:
		return ""
	}
}

func categoryForAnswerKey(key string) (Category, bool) {
	for _, cat := range categoryOrder {
		if _, ok := boostTables[cat][key]; ok {
			return cat, true
		}
	}
	return "", false
}
