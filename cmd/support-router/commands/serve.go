package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"support-router/internal/common/camunda"
	"support-router/internal/common/config"
	"support-router/internal/common/logger"
	resetsession "support-router/internal/workers/customer-service/reset-session"
	routequery "support-router/internal/workers/customer-service/route-query"
	"support-router/pkg/registry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var registryPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Zeebe job workers with health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			return a.serve(ctx, registryPath)
		},
	}

	cmd.Flags().StringVar(&registryPath, "registry", registry.DefaultPath, "Activity registry served on /activities")

	return cmd
}

func (a *app) serve(ctx context.Context, registryPath string) error {
	a.log.Info("Starting support router...", map[string]interface{}{"version": version})

	r, err := a.newRouter(ctx, routerOptions{})
	if err != nil {
		return err
	}

	zeebe, err := camunda.NewClient(ctx, a.cfg.Camunda, camunda.DefaultRetryConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := zeebe.Close(); err != nil {
			a.log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
		}
	}()
	a.log.Info("Zeebe client connected", map[string]interface{}{"broker": a.cfg.Camunda.BrokerAddress})

	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		a.log.Warn("activity registry unavailable", map[string]interface{}{"path": registryPath, "error": err.Error()})
	} else if missing := reg.Missing(routequery.TaskType, resetsession.TaskType); len(missing) > 0 {
		a.log.Warn("workers missing from activity registry", map[string]interface{}{"taskTypes": missing})
	}

	var workers []*camunda.Worker
	if wc := config.GetWorkerConfig(a.cfg, routequery.TaskType); wc.Enabled {
		h := routequery.NewHandler(routequery.LoadConfig(a.cfg), r, a.obs, a.log)
		workers = append(workers, camunda.StartWorker(zeebe.Zeebe(), routequery.TaskType, wc, h, a.log))
	}
	if wc := config.GetWorkerConfig(a.cfg, resetsession.TaskType); wc.Enabled {
		h := resetsession.NewHandler(resetsession.LoadConfig(a.cfg), r, a.log)
		workers = append(workers, camunda.StartWorker(zeebe.Zeebe(), resetsession.TaskType, wc, h, a.log))
	}
	a.log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	srv := &http.Server{
		Addr:              a.cfg.Observability.HTTPAddress,
		Handler:           newHealthMux(zeebe.HealthCheck, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("Health/Metrics server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		a.log.Info("Shutdown signal received, stopping workers...", nil)
	case err := <-serveErr:
		if err != nil {
			a.log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("Health/Metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	stopWorkers(workers, a.log)

	a.log.Info("Support router stopped gracefully", nil)
	return nil
}

func stopWorkers(workers []*camunda.Worker, log logger.Logger) {
	for _, w := range workers {
		w.Stop()
		log.Debug("worker stopped", map[string]interface{}{"taskType": w.TaskType()})
	}
}

// newHealthMux serves /health, /ready, /metrics and, when reg is set, /activities. ready
// reports 503 while probe fails.
func newHealthMux(probe func(context.Context) error, reg *registry.ActivityRegistry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", "")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if probe != nil {
			if err := probe(r.Context()); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "not_ready", err.Error())
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready", "")
	})
	mux.Handle("/metrics", promhttp.Handler())
	if reg != nil {
		mux.HandleFunc("/activities", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(reg)
		})
	}

	return mux
}

func writeStatus(w http.ResponseWriter, code int, status, detail string) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if detail != "" {
		body["error"] = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
