// Package search looks up majors and universities by name, preferring
// Elasticsearch and answering from the in-memory catalog when it is unavailable.
package search

import (
	"context"

	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/recommender"
)

const (
	SourceElasticsearch = "elasticsearch"
	SourceMemory        = "memory"

	DefaultSize = 20
	maxSize     = 100
)

// Index is a searchable store of catalog documents.
type Index interface {
	Name() string
	Search(ctx context.Context, query string, size int) ([]Document, error)
}

type Result struct {
	Query   string     `json:"query"`
	Source  string     `json:"source"`
	Total   int        `json:"total"`
	Results []Document `json:"results"`
}

type Service struct {
	primary  Index
	fallback *MemoryIndex
	logger   logger.Logger
}

// NewService searches primary first. A nil primary always uses the catalog in memory.
func NewService(primary Index, catalog *recommender.Catalog, log logger.Logger) *Service {
	return &Service{
		primary:  primary,
		fallback: NewMemoryIndex(catalog),
		logger:   log.WithFields(map[string]interface{}{"component": "search"}),
	}
}

func (s *Service) Search(ctx context.Context, query string, size int) (*Result, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size > maxSize {
		size = maxSize
	}

	if s.primary != nil {
		docs, err := s.primary.Search(ctx, query, size)
		if err == nil {
			return &Result{Query: query, Source: s.primary.Name(), Total: len(docs), Results: docs}, nil
		}
		s.logger.Warn("primary search failed, using in-memory catalog", map[string]interface{}{
			"index": s.primary.Name(),
			"query": query,
			"error": err,
		})
	}

	docs, err := s.fallback.Search(ctx, query, size)
	if err != nil {
		return nil, err
	}
	return &Result{Query: query, Source: s.fallback.Name(), Total: len(docs), Results: docs}, nil
}
