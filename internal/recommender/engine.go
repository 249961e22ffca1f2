// internal/recommender/engine.go
package recommender

import "math"

// Result is the outcome of one recommendation run.
type Result struct {
	CompositeScore   float64          `json:"compositeScore"`
	PerformanceLevel PerformanceLevel `json:"performanceLevel"`
	Recommendations  []Recommendation `json:"recommendations"`
}

// Engine matches student profiles against a fixed catalog. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	catalog *Catalog
	topN    int
}

// NewEngine builds an engine over catalog, or over DefaultCatalog when catalog is nil.
func NewEngine(catalog *Catalog, topN int) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Engine{catalog: catalog, topN: topN}
}

// Catalog exposes the engine's catalog for read-only listing endpoints.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Recommend scores a profile. It never fails; an empty Recommendations slice means
// nothing in the catalog fits.
func (e *Engine) Recommend(p StudentProfile) Result {
	composite := p.Composite()
	return Result{
		CompositeScore:   math.Round(composite*100) / 100,
		PerformanceLevel: Performance(composite),
		Recommendations:  MatchMajors(composite, p.Interests, p.Track, p.SpecializationAnswers, e.catalog, e.topN),
	}
}

// RecommendForm parses a raw quiz form and scores it.
func (e *Engine) RecommendForm(form map[string]interface{}) (StudentProfile, Result) {
	p := ParseForm(form)
	return p, e.Recommend(p)
}
