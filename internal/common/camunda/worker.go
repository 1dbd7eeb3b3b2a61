// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"support-router/internal/common/config"
	"support-router/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler processes one activated job and completes, fails or throws it itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Worker is one open job subscription.
type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// StartWorker opens a job worker for taskType. Zero settings fall back to the gateway defaults.
func StartWorker(client zbc.Client, taskType string, cfg config.WorkerConfig, handler JobHandler, log logger.Logger) *Worker {
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		Name("support-router")

	if cfg.MaxJobsActive > 0 {
		step = step.MaxJobsActive(cfg.MaxJobsActive)
	}
	if cfg.Timeout > 0 {
		step = step.Timeout(config.GetDuration(cfg.Timeout) + 5*time.Second)
	}

	w := &Worker{
		worker:   step.Open(),
		logger:   log.With(map[string]interface{}{"taskType": taskType}),
		taskType: taskType,
	}
	w.logger.Info("worker started", map[string]interface{}{
		"maxJobsActive": cfg.MaxJobsActive,
	})
	return w
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Stop closes the subscription and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
