// internal/recommender/recommender_test.go
package recommender

import (
	"math/rand"
	"testing"
	"testing/quick"

	apperrors "edupath-ksa/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func majorNames(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.University + "/" + r.Major
	}
	return out
}

func findMajor(t *testing.T, c *Catalog, university, name string) Major {
	t.Helper()
	for _, u := range c.Universities {
		if u.Name != university {
			continue
		}
		for _, m := range u.Majors {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("major %s/%s not in catalog", university, name)
	return Major{}
}

// ==========================
// Composite Score Tests
// ==========================

func TestComposite(t *testing.T) {
	tests := []struct {
		name     string
		gpa      float64
		gat      float64
		tahsili  float64
		track    Track
		expected float64
	}{
		{"science perfect", 100, 100, 100, TrackScience, 100},
		{"admin perfect", 100, 100, 100, TrackAdmin, 100},
		{"science weights tahsili", 80, 60, 40, TrackScience, 58},
		{"admin weights gpa and gat", 80, 60, 40, TrackAdmin, 64},
		{"computer uses science weights", 80, 60, 40, TrackComputer, 58},
		{"unknown track uses default weights", 80, 60, 40, Track("arts"), 64},
		{"all zero", 0, 0, 0, TrackScience, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Composite(tt.gpa, tt.gat, tt.tahsili, tt.track), 1e-9)
		})
	}
}

func TestPerformance(t *testing.T) {
	assert.Equal(t, LevelExcellentPlus, Performance(90))
	assert.Equal(t, LevelExcellent, Performance(89.99))
	assert.Equal(t, LevelExcellent, Performance(80))
	assert.Equal(t, LevelVeryGood, Performance(70))
	assert.Equal(t, LevelGood, Performance(69.9))
}

// ==========================
// Form Parsing Tests
// ==========================

func TestParseScore(t *testing.T) {
	tests := []struct {
		in       interface{}
		expected float64
	}{
		{"95", 95},
		{" 92.5 ", 92.5},
		{"88%", 88},
		{"abc", 0},
		{"", 0},
		{nil, 0},
		{float64(77), 77},
		{42, 42},
		{"NaN", 0},
		{true, 0},
		{"1e2", 100},
		{"2.5E1", 25},
		{"9e-1", 0.9},
		{"7e", 7},
		{"1e999", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseScore(tt.in), "input %v", tt.in)
	}
}

func TestParseForm(t *testing.T) {
	form := map[string]interface{}{
		"gpa":              "95",
		"quduratScore":     "92",
		"tahsiliScore":     "not a number",
		"track":            " Science ",
		"interests":        []interface{}{"computer", "Medicine", "computer"},
		"csProblemSolving": "High",
		"csProjects":       true,
		"artsPortfolio":    "yes",
		"unrelated":        "value",
	}

	p := ParseForm(form)

	assert.Equal(t, 95.0, p.GPA)
	assert.Equal(t, 92.0, p.Qudurat)
	assert.Equal(t, 0.0, p.Tahsili)
	assert.Equal(t, TrackScience, p.Track)
	assert.Equal(t, []Interest{InterestComputer, InterestMedicine}, p.Interests)
	assert.Equal(t, map[string]string{
		"csProblemSolving": "high",
		"csProjects":       "yes",
	}, p.SpecializationAnswers, "arts answers are dropped because arts was not selected")
}

func TestParseForm_DentistryUnlocksMedicineQuestions(t *testing.T) {
	p := ParseForm(map[string]interface{}{
		"interests":      "dentistry",
		"medBioInterest": "medium",
	})
	assert.Equal(t, "medium", p.SpecializationAnswers["medBioInterest"])
}

func TestProfileBuilder(t *testing.T) {
	b := NewProfileBuilder().
		Step(map[string]interface{}{"gpa": "90", "track": "admin"}).
		Step(map[string]interface{}{"quduratScore": "80", "tahsiliScore": "70"}).
		Step(map[string]interface{}{"gpa": "91", "interests": []string{"business"}, "busLeadership": "high"})

	assert.Equal(t, 3, b.Steps())

	p := b.Build()
	assert.Equal(t, 91.0, p.GPA)
	assert.Equal(t, TrackAdmin, p.Track)
	assert.Equal(t, "high", p.SpecializationAnswers["busLeadership"])

	form := b.Form()
	form["gpa"] = "10"
	assert.Equal(t, 91.0, b.Build().GPA, "Form returns a copy")
}

// ==========================
// Specialization Boost Tests
// ==========================

func TestClassify(t *testing.T) {
	assert.Equal(t, []Category{CategoryComputer}, Classify("علوم الحاسب"))
	assert.Equal(t, []Category{CategoryComputer, CategoryEngineering}, Classify("هندسة الحاسب"))
	assert.Equal(t, []Category{CategoryMedicine}, Classify("الطب البشري"))
	assert.Equal(t, []Category{CategoryBusiness}, Classify("الاقتصاد"))
	assert.Equal(t, []Category{CategoryLaw}, Classify("الشريعة"))
	assert.Equal(t, []Category{CategoryArts}, Classify("التصميم الداخلي"))
	assert.Equal(t, []Category{CategoryMedicine}, Classify("Dentistry"))
	assert.Equal(t, []Category{CategoryEngineering}, Classify("Software Engineering"))
	assert.Empty(t, Classify("الأمن السيبراني"))
}

func TestSpecializationBoost(t *testing.T) {
	tests := []struct {
		name     string
		major    string
		answers  map[string]string
		expected int
	}{
		{
			name:     "computer all top answers",
			major:    "علوم الحاسب",
			answers:  map[string]string{"csProblemSolving": "high", "csProjects": "yes", "csMathComfort": "high"},
			expected: 13,
		},
		{
			name:     "computer medium answers",
			major:    "علوم الحاسب",
			answers:  map[string]string{"csProblemSolving": "medium", "csProjects": "no", "csMathComfort": "medium"},
			expected: 4,
		},
		{
			name:     "additive across categories",
			major:    "هندسة الحاسب",
			answers:  map[string]string{"csProblemSolving": "high", "engHandsOn": "high"},
			expected: 12,
		},
		{
			name:     "answers for another category are ignored",
			major:    "الطب البشري",
			answers:  map[string]string{"csProblemSolving": "high"},
			expected: 0,
		},
		{
			name:     "medicine table",
			major:    "الطب البشري",
			answers:  map[string]string{"medBioInterest": "high", "medPatientCare": "medium", "medLongStudy": "true"},
			expected: 11,
		},
		{
			name:     "arts portfolio",
			major:    "التصميم الداخلي",
			answers:  map[string]string{"artsCreativity": "medium", "artsPortfolio": "yes"},
			expected: 7,
		},
		{
			name:     "malformed answers give nothing",
			major:    "الشريعة",
			answers:  map[string]string{"lawReading": "very much", "lawDebate": "42"},
			expected: 0,
		},
		{
			name:     "low answers give nothing",
			major:    "إدارة الأعمال",
			answers:  map[string]string{"busLeadership": "low", "busNumbers": "low"},
			expected: 0,
		},
		{
			name:     "nil answers",
			major:    "علوم الحاسب",
			answers:  nil,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SpecializationBoost(tt.major, tt.answers))
		})
	}
}

// ==========================
// Match Percentage Tests
// ==========================

func TestMatchPercentage(t *testing.T) {
	assert.Equal(t, 97, MatchPercentage(95, 85, true, 0))
	assert.Equal(t, 82, MatchPercentage(95, 85, false, 0))
	assert.Equal(t, 100, MatchPercentage(100, 80, true, 13))
	assert.Equal(t, 74, MatchPercentage(85, 85, false, 4))

	for _, m := range []int{1, 50, 75, 95, 100} {
		assert.Equal(t, 70, MatchPercentage(float64(m), m, false, 0), "minScore %d", m)
	}
}

func TestMatchPercentage_RoundsHalfUp(t *testing.T) {
	// (81-80)/80*100 + 70 = 71.25; +15 = 86.25 -> 86
	assert.Equal(t, 86, MatchPercentage(81, 80, true, 0))
	// (82-80)/80*100 + 70 = 72.5 -> 73
	assert.Equal(t, 73, MatchPercentage(82, 80, false, 0))
}

func TestMatchPercentage_Bounds(t *testing.T) {
	f := func(score uint8, min uint8, interest bool, boost uint8) bool {
		minScore := int(min%100) + 1
		s := float64(minScore) + float64(score%50)
		got := MatchPercentage(s, minScore, interest, int(boost%30))
		return got >= 70 && got <= 100
	}
	require.NoError(t, quick.Check(f, nil))
}

// ==========================
// Matching Tests
// ==========================

func TestMatchMajors_ReferenceProfile(t *testing.T) {
	p := ParseForm(map[string]interface{}{
		"gpa":          "95",
		"quduratScore": "92",
		"tahsiliScore": "90",
		"track":        "science",
		"interests":    []string{"medicine"},
	})

	res := NewEngine(nil, 0).Recommend(p)

	assert.InDelta(t, 92.1, res.CompositeScore, 1e-9)
	assert.Equal(t, LevelExcellentPlus, res.PerformanceLevel)
	require.Len(t, res.Recommendations, 10)

	assert.Equal(t, []string{
		"جامعة الملك خالد/التربية",
		"جامعة الفيصل/الصيدلة",
		"جامعة الملك عبدالعزيز/الاقتصاد",
		"جامعة الأميرة نورة/التصميم الداخلي",
		"جامعة الأمير سلطان/إدارة الأعمال",
		"جامعة الفيصل/الطب البشري",
		"جامعة الملك خالد/الطب البشري",
		"جامعة الملك سعود/إدارة الأعمال",
		"جامعة الملك سعود/الصيدلة",
		"جامعة الملك عبدالعزيز/العلوم",
	}, majorNames(res.Recommendations))

	first := res.Recommendations[0]
	assert.Equal(t, 93, first.MatchPercentage)
	assert.Equal(t, "92.10", first.StudentScore)
	assert.Equal(t, "أبها", first.City)
	assert.Equal(t, UniversityGovernment, first.Type)
	assert.False(t, first.HasInterest)

	for _, r := range res.Recommendations {
		assert.NotEqual(t, "جامعة الملك سعود/الطب البشري", r.University+"/"+r.Major,
			"composite 92.1 is below the 95 bar")
	}
}

func TestMatchMajors_MedicineCapsAt100(t *testing.T) {
	p := ParseForm(map[string]interface{}{
		"gpa":            "100",
		"quduratScore":   "100",
		"tahsiliScore":   "100",
		"track":          "science",
		"interests":      []string{"medicine"},
		"medBioInterest": "high",
		"medPatientCare": "high",
		"medLongStudy":   "yes",
	})

	res := NewEngine(nil, 0).Recommend(p)

	require.NotEmpty(t, res.Recommendations)
	top := res.Recommendations[0]
	assert.Equal(t, "جامعة الملك سعود", top.University)
	assert.Equal(t, "الطب البشري", top.Major)
	assert.Equal(t, 100, top.MatchPercentage)
	assert.True(t, top.HasInterest)
	assert.Equal(t, "100.00", top.StudentScore)
}

func TestMatchMajors_EmptyWhenNothingQualifies(t *testing.T) {
	res := NewEngine(nil, 0).Recommend(ParseForm(map[string]interface{}{
		"gpa": "50", "quduratScore": "50", "tahsiliScore": "50", "track": "science",
	}))
	assert.NotNil(t, res.Recommendations)
	assert.Empty(t, res.Recommendations)

	res = NewEngine(nil, 0).Recommend(ParseForm(map[string]interface{}{
		"gpa": "100", "quduratScore": "100", "tahsiliScore": "100", "track": "unknown",
	}))
	assert.Empty(t, res.Recommendations)
}

func TestMatchMajors_TiesKeepCatalogOrder(t *testing.T) {
	catalog := &Catalog{Universities: []University{
		{Name: "A", City: "x", Type: UniversityGovernment, Majors: []Major{
			major("m1", 80, nil, TrackAdmin),
			major("m2", 80, nil, TrackAdmin),
		}},
		{Name: "B", City: "y", Type: UniversityPrivate, Majors: []Major{
			major("m3", 80, nil, TrackAdmin),
			major("m4", 70, nil, TrackAdmin),
		}},
	}}

	recs := MatchMajors(80, nil, TrackAdmin, nil, catalog, 10)

	assert.Equal(t, []string{"B/m4", "A/m1", "A/m2", "B/m3"}, majorNames(recs))
}

func TestMatchMajors_TruncatesToTopN(t *testing.T) {
	recs := MatchMajors(100, nil, TrackScience, nil, DefaultCatalog(), 3)
	assert.Len(t, recs, 3)
}

func TestMatchMajors_Properties(t *testing.T) {
	catalog := DefaultCatalog()
	tracks := []Track{TrackScience, TrackComputer, TrackAdmin, TrackHumanities, TrackSharia}
	interests := []Interest{InterestMedicine, InterestEngineering, InterestComputer, InterestScience,
		InterestBusiness, InterestHumanities, InterestLaw, InterestArts, InterestDentistry}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		track := tracks[rng.Intn(len(tracks))]
		var picked []Interest
		for _, it := range interests {
			if rng.Intn(3) == 0 {
				picked = append(picked, it)
			}
		}
		composite := Composite(rng.Float64()*100, rng.Float64()*100, rng.Float64()*100, track)

		eligible := 0
		for _, u := range catalog.Universities {
			for _, m := range u.Majors {
				if composite >= float64(m.MinScore) && m.AcceptsTrack(track) {
					eligible++
				}
			}
		}

		recs := MatchMajors(composite, picked, track, nil, catalog, DefaultTopN)

		expectedLen := eligible
		if expectedLen > DefaultTopN {
			expectedLen = DefaultTopN
		}
		require.Len(t, recs, expectedLen)

		for j, r := range recs {
			m := findMajor(t, catalog, r.University, r.Major)
			assert.LessOrEqual(t, float64(m.MinScore), composite)
			assert.True(t, m.AcceptsTrack(track))
			assert.Equal(t, m.MatchesAny(picked), r.HasInterest)
			assert.GreaterOrEqual(t, r.MatchPercentage, 0)
			assert.LessOrEqual(t, r.MatchPercentage, 100)
			if j > 0 {
				assert.GreaterOrEqual(t, recs[j-1].MatchPercentage, r.MatchPercentage)
			}
		}
	}
}

// ==========================
// Catalog Tests
// ==========================

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Len(t, c.Universities, 8)
	assert.Equal(t, 34, c.MajorCount())

	c.Universities[0].Name = "changed"
	assert.Equal(t, "جامعة الملك سعود", DefaultCatalog().Universities[0].Name)
}

func TestCatalogEligible(t *testing.T) {
	got := DefaultCatalog().Eligible(78)
	require.Len(t, got, 5)
	for _, e := range got {
		assert.LessOrEqual(t, e.MinScore, 78)
	}
	assert.Equal(t, 75, got[len(got)-1].MinScore)
	assert.Empty(t, DefaultCatalog().Eligible(10))
}

func TestParseCatalog(t *testing.T) {
	valid := `{"universities":[{"name":"U","city":"C","type":"private","majors":[
		{"name":"علوم الحاسب","minScore":80,"interests":["computer"],"tracks":["science"]}]}]}`

	c, err := ParseCatalog([]byte(valid))
	require.NoError(t, err)
	assert.Equal(t, 1, c.MajorCount())

	invalid := []string{
		`{"universities":[]}`,
		`{"universities":[{"name":"U","city":"C","type":"public","majors":[]}]}`,
		`{"universities":[{"name":"U","city":"C","type":"private","majors":[{"name":"m","minScore":0,"tracks":["science"]}]}]}`,
		`{"universities":[{"name":"U","city":"C","type":"private","majors":[{"name":"m","minScore":80,"tracks":["science"],"interests":["cooking"]}]}]}`,
		`not json`,
	}
	for _, doc := range invalid {
		_, err := ParseCatalog([]byte(doc))
		require.Error(t, err, doc)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogInvalid), doc)
	}
}

func TestLoadCatalog_EmptyPathIsDefault(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), c)

	_, err = LoadCatalog("/does/not/exist.json")
	assert.Error(t, err)
}
