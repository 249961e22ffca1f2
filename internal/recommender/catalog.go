// internal/recommender/catalog.go
package recommender

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/validation"
)

// UniversityType distinguishes public from private institutions.
type UniversityType string

const (
	UniversityGovernment UniversityType = "government"
	UniversityPrivate    UniversityType = "private"
)

// Major is one program and its admission requirements.
type Major struct {
	Name      string     `json:"name"`
	MinScore  int        `json:"minScore"`
	Interests []Interest `json:"interests"`
	Tracks    []Track    `json:"tracks"`
}

// AcceptsTrack reports whether students from t may apply.
func (m Major) AcceptsTrack(t Track) bool {
	for _, own := range m.Tracks {
		if own == t {
			return true
		}
	}
	return false
}

// MatchesAny reports whether any of interests is one of the major's interests.
func (m Major) MatchesAny(interests []Interest) bool {
	for _, i := range interests {
		for _, own := range m.Interests {
			if own == i {
				return true
			}
		}
	}
	return false
}

type University struct {
	Name     string         `json:"name"`
	City     string         `json:"city"`
	Type     UniversityType `json:"type"`
	MinScore int            `json:"minScore"`
	Majors   []Major        `json:"majors"`
}

// Catalog is the read-only set of universities the engine matches against.
// It must not be modified after it is handed to an Engine.
type Catalog struct {
	Universities []University `json:"universities"`
}

// MajorCount returns the number of (university, major) pairs.
func (c *Catalog) MajorCount() int {
	n := 0
	for _, u := range c.Universities {
		n += len(u.Majors)
	}
	return n
}

// EligibleMajor is a catalog entry reachable with a given percentage.
type EligibleMajor struct {
	University string         `json:"university"`
	City       string         `json:"city"`
	Type       UniversityType `json:"type"`
	Major      string         `json:"major"`
	MinScore   int            `json:"minScore"`
}

// Eligible lists every major whose minimum score is at most percent, highest minimum first.
func (c *Catalog) Eligible(percent float64) []EligibleMajor {
	out := make([]EligibleMajor, 0)
	for _, u := range c.Universities {
		for _, m := range u.Majors {
			if float64(m.MinScore) <= percent {
				out = append(out, EligibleMajor{
					University: u.Name,
					City:       u.City,
					Type:       u.Type,
					Major:      m.Name,
					MinScore:   m.MinScore,
				})
			}
		}
	}
	sortEligible(out)
	return out
}

func sortEligible(out []EligibleMajor) {
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinScore > out[j].MinScore
	})
}

const catalogSchema = `{
  "type": "object",
  "required": ["universities"],
  "properties": {
    "universities": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "city", "type", "majors"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "city": {"type": "string", "minLength": 1},
          "type": {"type": "string", "enum": ["government", "private"]},
          "minScore": {"type": "integer", "minimum": 0, "maximum": 100},
          "majors": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name", "minScore", "tracks"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "minScore": {"type": "integer", "minimum": 1, "maximum": 100},
                "interests": {
                  "type": "array",
                  "items": {"type": "string", "enum": ["medicine", "engineering", "computer", "science", "business", "humanities", "law", "arts", "dentistry"]}
                },
                "tracks": {
                  "type": "array",
                  "minItems": 1,
                  "items": {"type": "string", "enum": ["science", "computer", "admin", "humanities", "sharia"]}
                }
              }
            }
          }
        }
      }
    }
  }
}`

var catalogValidator = validation.MustCompile(catalogSchema)

// ParseCatalog validates raw JSON against the catalog schema and decodes it.
func ParseCatalog(data []byte) (*Catalog, error) {
	result, err := catalogValidator.ValidateBytes(data)
	if err != nil {
		return nil, apperrors.NewCatalogInvalidError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewCatalogInvalidError(result.Summary())
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, apperrors.NewCatalogInvalidError(err.Error())
	}
	return &c, nil
}

// LoadCatalog reads a catalog file. An empty path returns the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

func major(name string, minScore int, interests []Interest, tracks ...Track) Major {
	return Major{Name: name, MinScore: minScore, Interests: interests, Tracks: tracks}
}

func in(i ...Interest) []Interest { return i }

// DefaultCatalog returns a fresh copy of the built-in Saudi university catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{Universities: []University{
		{
			Name: "جامعة الملك سعود", City: "الرياض", Type: UniversityGovernment, MinScore: 85,
			Majors: []Major{
				major("الطب البشري", 95, in(InterestMedicine), TrackScience),
				major("الهندسة الكهربائية", 88, in(InterestEngineering), TrackScience, TrackComputer),
				major("علوم الحاسب", 85, in(InterestComputer), TrackScience, TrackComputer),
				major("إدارة الأعمال", 80, in(InterestBusiness), TrackAdmin, TrackScience, TrackHumanities),
				major("الصيدلة", 92, in(InterestMedicine), TrackScience),
			},
		},
		{
			Name: "جامعة الملك عبدالعزيز", City: "جدة", Type: UniversityGovernment, MinScore: 83,
			Majors: []Major{
				major("الطب البشري", 94, in(InterestMedicine), TrackScience),
				major("الهندسة الميكانيكية", 86, in(InterestEngineering), TrackScience, TrackComputer),
				major("تقنية المعلومات", 82, in(InterestComputer), TrackScience, TrackComputer),
				major("الاقتصاد", 78, in(InterestBusiness), TrackAdmin, TrackScience, TrackHumanities),
				major("العلوم", 80, in(InterestScience), TrackScience),
			},
		},
		{
			Name: "جامعة الملك فهد للبترول والمعادن", City: "الظهران", Type: UniversityGovernment, MinScore: 90,
			Majors: []Major{
				major("هندسة البترول", 92, in(InterestEngineering), TrackScience),
				major("هندسة الحاسب", 90, in(InterestComputer, InterestEngineering), TrackScience, TrackComputer),
				major("الهندسة الكيميائية", 90, in(InterestEngineering, InterestScience), TrackScience),
				major("علوم الحاسب", 88, in(InterestComputer), TrackScience, TrackComputer),
			},
		},
		{
			Name: "جامعة الأميرة نورة", City: "الرياض", Type: UniversityGovernment, MinScore: 82,
			Majors: []Major{
				major("الطب البشري", 93, in(InterestMedicine), TrackScience),
				major("علوم الحاسب", 84, in(InterestComputer), TrackScience, TrackComputer),
				major("التصميم الداخلي", 78, in(InterestArts), TrackScience, TrackHumanities, TrackAdmin),
				major("اللغات والترجمة", 80, in(InterestHumanities), TrackHumanities, TrackAdmin),
			},
		},
		{
			Name: "جامعة الإمام محمد بن سعود", City: "الرياض", Type: UniversityGovernment, MinScore: 80,
			Majors: []Major{
				major("الشريعة", 82, in(InterestLaw), TrackSharia, TrackHumanities),
				major("أصول الدين", 80, in(InterestLaw), TrackSharia, TrackHumanities),
				major("اللغة العربية", 78, in(InterestHumanities), TrackHumanities, TrackSharia),
				major("علوم الحاسب", 83, in(InterestComputer), TrackScience, TrackComputer),
			},
		},
		{
			Name: "جامعة الأمير سلطان", City: "الرياض", Type: UniversityPrivate, MinScore: 78,
			Majors: []Major{
				major("هندسة البرمجيات", 82, in(InterestComputer, InterestEngineering), TrackScience, TrackComputer),
				major("إدارة الأعمال", 78, in(InterestBusiness), TrackAdmin, TrackScience, TrackHumanities),
				major("الهندسة الصناعية", 80, in(InterestEngineering), TrackScience, TrackComputer),
				major("الأمن السيبراني", 83, in(InterestComputer), TrackScience, TrackComputer),
			},
		},
		{
			Name: "جامعة الفيصل", City: "الرياض", Type: UniversityPrivate, MinScore: 80,
			Majors: []Major{
				major("الطب البشري", 90, in(InterestMedicine), TrackScience),
				major("الصيدلة", 88, in(InterestMedicine), TrackScience),
				major("الهندسة", 82, in(InterestEngineering), TrackScience, TrackComputer),
				major("إدارة الأعمال", 80, in(InterestBusiness), TrackAdmin, TrackScience, TrackHumanities),
			},
		},
		{
			Name: "جامعة الملك خالد", City: "أبها", Type: UniversityGovernment, MinScore: 78,
			Majors: []Major{
				major("الطب البشري", 90, in(InterestMedicine), TrackScience),
				major("الهندسة", 82, in(InterestEngineering), TrackScience, TrackComputer),
				major("علوم الحاسب", 80, in(InterestComputer), TrackScience, TrackComputer),
				major("التربية", 75, in(InterestHumanities), TrackHumanities, TrackScience, TrackAdmin),
			},
		},
	}}
}
