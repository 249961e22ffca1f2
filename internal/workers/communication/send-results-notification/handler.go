// internal/workers/communication/send-results-notification/handler.go
package sendresultsnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/common/metrics"
	"edupath-ksa/internal/notify"
	"edupath-ksa/internal/recommender"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-results-notification"
)

type Notifier interface {
	NotifyResults(ctx context.Context, to notify.Recipient, s notify.Summary) (*notify.Delivery, error)
}

type Handler struct {
	config       *Config
	notifier     Notifier
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, notifier Notifier, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		notifier:     notifier,
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

// execute completes as long as at least one channel delivered; a partial failure is
// logged instead of retried so the student is not messaged twice.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Email) == "" && strings.TrimSpace(input.Phone) == "" {
		return nil, apperrors.NewValidationError("email or phone is required")
	}

	level := input.PerformanceLevel
	if level == "" {
		level = recommender.Performance(input.CompositeScore)
	}

	delivery, err := h.notifier.NotifyResults(ctx,
		notify.Recipient{Name: input.StudentName, Email: input.Email, Phone: input.Phone},
		notify.Summary{
			CompositeScore:   input.CompositeScore,
			PerformanceLevel: level,
			Recommendations:  input.Recommendations,
		},
	)
	if err != nil {
		if delivery == nil || len(delivery.Channels) == 0 {
			return nil, err
		}
		h.logger.Warn("partial delivery", map[string]interface{}{
			"channels": delivery.Channels,
			"error":    err.Error(),
		})
	}
	if delivery == nil || len(delivery.Channels) == 0 {
		return nil, apperrors.NewNotificationSendFailedError("all", fmt.Errorf("no channel configured for recipient"))
	}

	return &Output{
		Channels:       delivery.Channels,
		EmailMessageID: delivery.EmailMessageID,
		SMSMessageID:   delivery.SMSMessageID,
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.AsStandardError(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
