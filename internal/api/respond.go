package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/validation"
	"edupath-ksa/internal/store"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes int64 = 1 << 20

type errorBody struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Details string              `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"data": data})
}

// writeError maps err onto the error envelope. Store sentinels become 404 and 409.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stdErr *apperrors.StandardError
	switch {
	case errors.Is(err, store.ErrNotFound):
		stdErr = apperrors.NewNotFoundError("Resource", "")
	case errors.Is(err, store.ErrDuplicate):
		stdErr = apperrors.NewConflictError("")
	default:
		stdErr = apperrors.AsStandardError(err)
	}

	if apperrors.HTTPStatus(stdErr.Code) >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"requestId": RequestIDFrom(r.Context()),
			"path":      r.URL.Path,
			"code":      stdErr.Code,
			"details":   stdErr.Details,
			"error":     err.Error(),
		})
		// Backend error text stays in the log.
		stdErr = &apperrors.StandardError{Code: stdErr.Code, Message: stdErr.Message, Retryable: stdErr.Retryable}
	}
	writeStdError(w, stdErr)
}

func writeStdError(w http.ResponseWriter, stdErr *apperrors.StandardError) {
	writeJSON(w, apperrors.HTTPStatus(stdErr.Code), map[string]interface{}{"error": errorBody{
		Code:    stdErr.Code,
		Message: stdErr.Message,
		Details: stdErr.Details,
	}})
}

// decodeBody reads a JSON body, optionally checking it against schema first.
func decodeBody(w http.ResponseWriter, r *http.Request, schema *validation.Schema, dst interface{}) error {
	return decodeLimited(w, r, maxBodyBytes, schema, dst)
}

func decodeLimited(w http.ResponseWriter, r *http.Request, limit int64, schema *validation.Schema, dst interface{}) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.NewPayloadTooLargeError(limit)
		}
		return apperrors.NewValidationError("unreadable request body")
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	if schema != nil {
		result, err := schema.ValidateBytes(raw)
		if err != nil {
			return apperrors.NewValidationError("body is not valid JSON")
		}
		if !result.Valid {
			return apperrors.NewValidationError(result.Summary())
		}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid JSON: %s", err.Error()))
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("id must be a positive integer")
	}
	return id, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return v, nil
}
