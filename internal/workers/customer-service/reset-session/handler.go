// internal/workers/customer-service/reset-session/handler.go
package resetsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "support-router/internal/common/errors"
	"support-router/internal/common/logger"
	"support-router/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "reset-customer-session"
)

var ErrInvalidInput = errors.New("INVALID_RESET_INPUT")

// SessionResetter is the part of the router this worker needs.
type SessionResetter interface {
	ResetSession(ctx context.Context, sessionID string) error
}

type Handler struct {
	config       *Config
	sessions     SessionResetter
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, sessions SessionResetter, log logger.Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		sessions:     sessions,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
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
		h.fail(ctx, client, job, fmt.Errorf("%w: %w", ErrInvalidInput,
			apperrors.NewInvalidRouteInputError(fmt.Sprintf("parse input: %v", err))))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute clears the session counter. Store failures keep their SESSION_STORE_FAILED code so
// the job is retried.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, apperrors.NewInvalidRouteInputError("sessionId is required"))
	}

	if err := h.sessions.ResetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	h.logger.Info("session reset", map[string]interface{}{"sessionId": sessionID})
	return &Output{SessionID: sessionID, Reset: true}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
