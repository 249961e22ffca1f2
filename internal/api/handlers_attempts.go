package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"edupath-ksa/internal/auth"
	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/metrics"
	"edupath-ksa/internal/common/validation"
	"edupath-ksa/internal/notify"
	"edupath-ksa/internal/recommender"
	"edupath-ksa/internal/store"
)

var attemptSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["answers"],
  "properties": {
    "quizId": {"type": "integer", "minimum": 1},
    "answers": {"type": "object"},
    "compositeScore": {"type": ["number", "null"]},
    "durationSeconds": {"type": "integer", "minimum": 0}
  }
}`)

type attemptRequest struct {
	QuizID          int64                  `json:"quizId"`
	Answers         map[string]interface{} `json:"answers"`
	CompositeScore  *float64               `json:"compositeScore"`
	DurationSeconds int                    `json:"durationSeconds"`
}

type attemptResponse struct {
	*store.Attempt
	PerformanceLevel recommender.PerformanceLevel `json:"performanceLevel,omitempty"`
	Saved            bool                        `json:"saved"`
}

type recommendResponse struct {
	Profile recommender.StudentProfile `json:"profile"`
	recommender.Result
}

// recommend scores a raw quiz form and records the run.
func (s *Server) recommend(ctx context.Context, form map[string]interface{}) (recommender.StudentProfile, recommender.Result) {
	start := time.Now()
	profile, result := s.engine.RecommendForm(form)

	matched := strconv.FormatBool(len(result.Recommendations) > 0)
	metrics.RecommendationsServed.WithLabelValues(string(profile.Track), matched).Inc()
	metrics.RecommendationResultSize.Observe(float64(len(result.Recommendations)))
	s.obs.RecordRun(ctx, string(profile.Track), result.CompositeScore, time.Since(start))
	return profile, result
}

// handleRecommend is stateless: it scores the posted form without persisting anything.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	form := map[string]interface{}{}
	if err := decodeBody(w, r, nil, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, result := s.recommend(r.Context(), form)
	writeData(w, http.StatusOK, recommendResponse{Profile: profile, Result: result})
}

func (s *Server) handleCreateAttempt(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	var req attemptRequest
	if err := decodeBody(w, r, attemptSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.QuizID == 0 {
		req.QuizID = store.SurveyQuizID
	}

	a := &store.Attempt{
		QuizID:          req.QuizID,
		UserID:          claims.UserID,
		DurationSeconds: req.DurationSeconds,
		Answers:         req.Answers,
	}

	resp := attemptResponse{Attempt: a}
	var result recommender.Result
	if req.QuizID == store.SurveyQuizID {
		_, result = s.recommend(r.Context(), req.Answers)
		a.CompositeScore = result.CompositeScore
		a.Recommendations = result.Recommendations
		resp.PerformanceLevel = result.PerformanceLevel
	} else if req.CompositeScore != nil {
		a.CompositeScore = *req.CompositeScore
	}

	if err := s.store.SaveAttempt(r.Context(), a); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, apperrors.NewNotFoundError("Quiz", ""))
			return
		}
		if req.QuizID != store.SurveyQuizID {
			s.writeError(w, r, err)
			return
		}
		// The student still sees their results; only the history entry is lost.
		metrics.AttemptPersistFailures.Inc()
		s.logger.Warn("survey attempt not saved", map[string]interface{}{
			"requestId": RequestIDFrom(r.Context()),
			"userId":    claims.UserID,
			"error":     err.Error(),
		})
		writeData(w, http.StatusOK, resp)
		return
	}
	resp.Saved = true

	if req.QuizID == store.SurveyQuizID && s.notifier != nil {
		go s.notifyResults(claims.UserID, result)
	}

	writeData(w, http.StatusCreated, resp)
}

// notifyResults runs detached from the request; failures are only logged.
func (s *Server) notifyResults(userID int64, result recommender.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	log := s.logger.WithFields(map[string]interface{}{"userId": userID})
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		log.Warn("results notification skipped", map[string]interface{}{"error": err.Error()})
		return
	}

	_, err = s.notifier.NotifyResults(ctx,
		notify.Recipient{Name: u.FullName(), Email: u.Email, Phone: u.Phone},
		notify.Summary{
			CompositeScore:   result.CompositeScore,
			PerformanceLevel: result.PerformanceLevel,
			Recommendations:  result.Recommendations,
		},
	)
	if err != nil {
		log.Warn("results notification failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) handleLatestAttempt(w http.ResponseWriter, r *http.Request) {
	quizID, err := queryInt(r, "quizId", store.SurveyQuizID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.store.LatestAttempt(r.Context(), ClaimsFrom(r.Context()).UserID, quizID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, apperrors.NewNotFoundError("Attempt", "no attempt for this quiz yet"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, withLevel(a))
}

// handleListAttempts lists the caller's attempts. Admins may pass user_id, or 0 for everyone.
func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	userID := claims.UserID
	if claims.Role == auth.RoleAdmin && r.URL.Query().Has("user_id") {
		id, err := queryInt(r, "user_id", 0)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		userID = id
	}

	limit, err := queryInt(r, "limit", store.DefaultListLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	attempts, err := s.store.ListAttempts(r.Context(), userID, int(limit))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, attempts)
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.store.GetAttempt(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, apperrors.NewNotFoundError("Attempt", ""))
			return
		}
		s.writeError(w, r, err)
		return
	}

	claims := ClaimsFrom(r.Context())
	if a.UserID != claims.UserID && claims.Role != auth.RoleAdmin {
		s.writeError(w, r, apperrors.NewForbiddenError("attempt belongs to another user"))
		return
	}
	writeData(w, http.StatusOK, withLevel(a))
}

func withLevel(a *store.Attempt) attemptResponse {
	resp := attemptResponse{Attempt: a}
	if a.QuizID == store.SurveyQuizID {
		resp.PerformanceLevel = recommender.Performance(a.CompositeScore)
	}
	return resp
}
