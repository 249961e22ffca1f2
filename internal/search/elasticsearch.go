// internal/search/elasticsearch.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "edupath-ksa/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"id":         {"type": "keyword"},
			"university": {"type": "text", "analyzer": "arabic", "fields": {"raw": {"type": "keyword"}}},
			"city":       {"type": "text", "analyzer": "arabic", "fields": {"raw": {"type": "keyword"}}},
			"type":       {"type": "keyword"},
			"major":      {"type": "text", "analyzer": "arabic", "fields": {"raw": {"type": "keyword"}}},
			"minScore":   {"type": "integer"},
			"interests":  {"type": "keyword"},
			"tracks":     {"type": "keyword"}
		}
	}
}`

// ESIndex stores catalog documents in an Elasticsearch index.
type ESIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewESIndex(client *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{client: client, index: index}
}

func (e *ESIndex) Name() string { return SourceElasticsearch }

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (e *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperrors.NewSearchFailedError("index exists", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return apperrors.NewSearchFailedError("create index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchFailedError("create index", fmt.Errorf("%s", res.String()))
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// IndexDocuments bulk-indexes docs and refreshes the index. It returns how many were accepted.
func (e *ESIndex) IndexDocuments(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		meta := map[string]map[string]string{"index": {"_index": e.index, "_id": d.ID}}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(d); err != nil {
			return 0, fmt.Errorf("encode document %s: %w", d.ID, err)
		}
	}

	req := esapi.BulkRequest{
		Index:   e.index,
		Body:    &buf,
		Refresh: "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return 0, apperrors.NewSearchFailedError("bulk index", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, apperrors.NewSearchFailedError("bulk index", fmt.Errorf("%s", res.String()))
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return 0, apperrors.NewSearchFailedError("bulk index", err)
	}
	if !br.Errors {
		return len(docs), nil
	}

	failed := 0
	var firstReason string
	for _, item := range br.Items {
		for _, result := range item {
			if result.Status >= 300 {
				failed++
				if firstReason == "" && result.Error != nil {
					firstReason = result.Error.Reason
				}
			}
		}
	}
	return len(docs) - failed, apperrors.NewSearchFailedError("bulk index",
		fmt.Errorf("%d of %d documents rejected: %s", failed, len(docs), firstReason))
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildSearchQuery(query string) map[string]interface{} {
	if strings.TrimSpace(query) == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
			"sort":  []interface{}{map[string]interface{}{"minScore": "desc"}},
		}
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"major^3", "university^2", "city"},
				"fuzziness": "AUTO",
			},
		},
	}
}

// Search runs a fuzzy multi-field match over major, university and city.
func (e *ESIndex) Search(ctx context.Context, query string, size int) ([]Document, error) {
	body, err := json.Marshal(buildSearchQuery(query))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, apperrors.NewSearchFailedError("search", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewIndexNotFoundError(e.index)
	}
	if res.IsError() {
		return nil, apperrors.NewSearchFailedError("search", fmt.Errorf("%s", res.String()))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, apperrors.NewSearchFailedError("decode search response", err)
	}
	docs := make([]Document, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return docs, nil
}
