// internal/workers/customer-service/route-query/handler.go
package routequery

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
	"support-router/internal/common/observability"
	"support-router/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "route-customer-query"
)

var ErrInvalidInput = errors.New("INVALID_ROUTE_INPUT")

// Router is the part of the router this worker needs.
type Router interface {
	Route(ctx context.Context, query, sessionID string) models.FinalResponse
}

type Handler struct {
	config       *Config
	router       Router
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

// NewHandler wires the worker. obs may be nil.
func NewHandler(config *Config, router Router, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		router:       router,
		errorHandler: apperrors.NewErrorHandler(l),
		obs:          obs,
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, start, fmt.Errorf("%w: %w", ErrInvalidInput,
			apperrors.NewInvalidRouteInputError(fmt.Sprintf("parse input: %v", err))))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, start, err)
		return
	}

	h.completeJob(ctx, client, job, start, output)
}

// Execute validates input and routes the query. Routing itself never fails.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, apperrors.NewInvalidRouteInputError("query is required"))
	}
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, apperrors.NewInvalidRouteInputError("sessionId is required"))
	}

	resp := h.router.Route(ctx, input.Query, input.SessionID)

	h.logger.Info("query routed", map[string]interface{}{
		"sessionId":  input.SessionID,
		"intent":     resp.Intent,
		"confidence": resp.Confidence,
		"escalated":  resp.Escalated,
	})

	return &Output{
		Query:      resp.Query,
		Intent:     resp.Intent.String(),
		Confidence: resp.Confidence,
		Response:   resp.Response,
		Escalated:  resp.Escalated,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		h.fail(ctx, client, job, start, err)
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
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	code := string(apperrors.Normalize(err).Code)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
