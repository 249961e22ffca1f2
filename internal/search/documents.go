// internal/search/documents.go
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"edupath-ksa/internal/recommender"
)

// Document is one (university, major) pair as stored in the search index.
type Document struct {
	ID         string                     `json:"id"`
	University string                     `json:"university"`
	City       string                     `json:"city"`
	Type       recommender.UniversityType `json:"type"`
	Major      string                     `json:"major"`
	MinScore   int                        `json:"minScore"`
	Interests  []recommender.Interest     `json:"interests"`
	Tracks     []recommender.Track        `json:"tracks"`
}

// Documents flattens a catalog. IDs are positional so re-indexing the same catalog overwrites in place.
func Documents(c *recommender.Catalog) []Document {
	docs := make([]Document, 0, c.MajorCount())
	for ui, u := range c.Universities {
		for mi, m := range u.Majors {
			docs = append(docs, Document{
				ID:         fmt.Sprintf("u%02d-m%02d", ui+1, mi+1),
				University: u.Name,
				City:       u.City,
				Type:       u.Type,
				Major:      m.Name,
				MinScore:   m.MinScore,
				Interests:  m.Interests,
				Tracks:     m.Tracks,
			})
		}
	}
	return docs
}

// MemoryIndex answers searches by case-insensitive substring over the catalog.
type MemoryIndex struct {
	docs []Document
}

func NewMemoryIndex(c *recommender.Catalog) *MemoryIndex {
	return &MemoryIndex{docs: Documents(c)}
}

func (m *MemoryIndex) Name() string { return SourceMemory }

// Search matches major, university or city names. Results keep catalog order
// among equal minimum scores and are ordered by minimum score, highest first.
func (m *MemoryIndex) Search(_ context.Context, query string, size int) ([]Document, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Document, 0)
	for _, d := range m.docs {
		if q == "" ||
			strings.Contains(strings.ToLower(d.Major), q) ||
			strings.Contains(strings.ToLower(d.University), q) ||
			strings.Contains(strings.ToLower(d.City), q) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinScore > out[j].MinScore })
	if size > 0 && len(out) > size {
		out = out[:size]
	}
	return out, nil
}
