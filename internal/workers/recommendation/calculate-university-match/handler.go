// internal/workers/recommendation/calculate-university-match/handler.go
package calculateuniversitymatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/common/metrics"
	"edupath-ksa/internal/common/observability"
	"edupath-ksa/internal/recommender"
	"edupath-ksa/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-university-match"
)

// AttemptSource looks up the survey answers a user submitted last.
type AttemptSource interface {
	LatestAttempt(ctx context.Context, userID, quizID int64) (*store.Attempt, error)
}

type Handler struct {
	config       *Config
	engine       *recommender.Engine
	attempts     AttemptSource
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, engine *recommender.Engine, attempts AttemptSource, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		attempts:     attempts,
		obs:          obs,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	answers := input.Answers
	var attemptID int64

	if len(answers) == 0 {
		if input.UserID <= 0 {
			return nil, apperrors.NewValidationError("either answers or userId is required")
		}
		attempt, err := h.attempts.LatestAttempt(ctx, input.UserID, store.SurveyQuizID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperrors.NewNotFoundError("Survey attempt", fmt.Sprintf("userId: %d", input.UserID))
			}
			return nil, err
		}
		answers = attempt.Answers
		attemptID = attempt.ID
	}

	start := time.Now()
	profile, result := h.engine.RecommendForm(answers)
	h.obs.RecordRun(ctx, string(profile.Track), result.CompositeScore, time.Since(start))

	h.logger.Info("university match calculated", map[string]interface{}{
		"userId":          input.UserID,
		"compositeScore":  result.CompositeScore,
		"level":           result.PerformanceLevel,
		"recommendations": len(result.Recommendations),
	})

	return &Output{
		CompositeScore:   result.CompositeScore,
		PerformanceLevel: result.PerformanceLevel,
		Recommendations:  result.Recommendations,
		AttemptID:        attemptID,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.AsStandardError(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
