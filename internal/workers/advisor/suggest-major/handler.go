// internal/workers/advisor/suggest-major/handler.go
package suggestmajor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"edupath-ksa/internal/advisor"
	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "suggest-major"
)

type Advisor interface {
	Suggest(ctx context.Context, userID int64, req advisor.Request) (*advisor.Suggestion, error)
}

type Handler struct {
	config       *Config
	advisor      Advisor
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, adv Advisor, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		advisor:      adv,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	suggestion, err := h.advisor.Suggest(ctx, input.UserID, advisor.Request{
		GPA:      input.GPA,
		GAT:      input.GAT,
		Tahsili:  input.Tahsili,
		Subjects: input.Subjects,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		Major:    suggestion.Major,
		Source:   suggestion.Source,
		Provider: suggestion.Provider,
	}, nil
}

func validateInput(input *Input) error {
	scores := map[string]float64{"gpa": input.GPA, "gatScore": input.GAT, "tahsiliScore": input.Tahsili}
	for _, name := range []string{"gpa", "gatScore", "tahsiliScore"} {
		if v := scores[name]; v < 0 || v > 100 {
			return apperrors.NewValidationError(fmt.Sprintf("%s must be between 0 and 100, got %v", name, v))
		}
	}
	if input.GPA == 0 && input.GAT == 0 && input.Tahsili == 0 {
		return apperrors.NewValidationError("at least one score is required")
	}
	return nil
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

// failJob lets the error handler decide between a retry (AI timeouts, store outages)
// and a BPMN error.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.AsStandardError(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
