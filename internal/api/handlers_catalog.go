package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"edupath-ksa/internal/advisor"
	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/validation"
)

var (
	eligibilitySchema = validation.MustCompile(`{
  "type": "object",
  "required": ["percent"],
  "properties": {
    "percent": {"type": "number", "minimum": 0, "maximum": 100}
  }
}`)

	suggestSchema = validation.MustCompile(`{
  "type": "object",
  "properties": {
    "gpa": {"type": "number", "minimum": 0, "maximum": 100},
    "gat_score": {"type": "number", "minimum": 0, "maximum": 100},
    "tahsili_score": {"type": "number", "minimum": 0, "maximum": 100},
    "subject_scores": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["subject"],
        "properties": {
          "subject": {"type": "string", "minLength": 1},
          "score": {"type": ["number", "null"]}
        }
      }
    },
    "certificate_base64": {"type": "string"}
  }
}`)
)

var (
	errNoSearch  = errors.New("search is not configured")
	errNoAdvisor = errors.New("major advisor is not configured")
)

type eligibilityRequest struct {
	Percent float64 `json:"percent"`
}

func (s *Server) handleUniversities(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.engine.Catalog().Universities)
}

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	var req eligibilityRequest
	if err := decodeBody(w, r, eligibilitySchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, s.engine.Catalog().Eligible(req.Percent))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		s.writeError(w, r, apperrors.NewSearchFailedError("search", errNoSearch))
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("college"))
	result, err := s.search.Search(r.Context(), query, int(size))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (s *Server) handleSuggestMajor(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		s.writeError(w, r, apperrors.NewAISuggestionFailedError("none", errNoAdvisor))
		return
	}

	// base64 inflates the certificate by a third
	limit := s.uploads.MaxBytes*4/3 + maxBodyBytes
	if s.uploads.MaxBytes <= 0 {
		limit = 8 * maxBodyBytes
	}

	var req advisor.Request
	if err := decodeLimited(w, r, limit, suggestSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	suggestion, err := s.advisor.Suggest(r.Context(), ClaimsFrom(r.Context()).UserID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, suggestion)
}

// ==========================
// Health
// ==========================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleReady pings every dependency and answers 503 if any of them fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		if err := c.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}
