package api

import (
	"errors"
	"net/http"

	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/validation"
	"edupath-ksa/internal/store"
)

var (
	quizSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "minLength": 1, "maxLength": 255},
    "description": {"type": "string"},
    "isActive": {"type": "boolean"}
  }
}`)

	questionSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["questionText"],
  "properties": {
    "questionText": {"type": "string", "minLength": 1},
    "questionType": {"type": "string", "enum": ["choice", "multi", "text", "number", "scale"]},
    "options": {"type": "array", "items": {"type": "string"}},
    "isRequired": {"type": "boolean"}
  }
}`)
)

type quizRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

type questionRequest struct {
	Text       string   `json:"questionText"`
	Type       string   `json:"questionType"`
	Options    []string `json:"options"`
	IsRequired *bool    `json:"isRequired"`
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	quizzes, err := s.store.ListQuizzes(r.Context(), activeOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, quizzes)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	quiz, err := s.store.GetQuiz(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, apperrors.NewNotFoundError("Quiz", ""))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, quiz)
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeBody(w, r, quizSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	createdBy := ClaimsFrom(r.Context()).UserID
	q := &store.Quiz{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    req.IsActive == nil || *req.IsActive,
		CreatedBy:   &createdBy,
	}
	if err := s.store.CreateQuiz(r.Context(), q); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, q)
}

func (s *Server) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req questionRequest
	if err := decodeBody(w, r, questionSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	q := &store.Question{
		QuizID:     quizID,
		Text:       req.Text,
		Type:       req.Type,
		Options:    req.Options,
		IsRequired: req.IsRequired == nil || *req.IsRequired,
	}
	if q.Type == "" {
		q.Type = "choice"
	}
	if err := s.store.AddQuestion(r.Context(), q); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, apperrors.NewNotFoundError("Quiz", ""))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, q)
}
