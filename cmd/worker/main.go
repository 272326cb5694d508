package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"golang.org/x/time/rate"

	natsadapter "github.com/samirrijal/tripfootprint/internal/adapters/nats"
	"github.com/samirrijal/tripfootprint/internal/adapters/postgres"
	"github.com/samirrijal/tripfootprint/internal/core/domain"
	"github.com/samirrijal/tripfootprint/internal/core/footprint"
	"github.com/samirrijal/tripfootprint/internal/core/ports"
	"github.com/samirrijal/tripfootprint/internal/core/usecases"
	"github.com/samirrijal/tripfootprint/internal/pkg/config"
	"github.com/samirrijal/tripfootprint/internal/pkg/logging"
	"github.com/samirrijal/tripfootprint/internal/pkg/metrics"
	"github.com/samirrijal/tripfootprint/internal/pkg/telemetry"
	"github.com/samirrijal/tripfootprint/internal/workflows"
)

func main() {
	cfg, err := config.Load("tripfootprint-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	if !cfg.Database.Enabled {
		log.Fatal("worker needs the database: set database.enabled")
	}
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	estimator, err := footprint.New(cfg.Emissions.Table())
	if err != nil {
		log.Fatalf("emission factors: %v", err)
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats publisher unavailable, footprint events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	svc := usecases.NewFootprintService(estimator, postgres.NewFootprintRepo(db), nil, publisher)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, workflows.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.FootprintWorkflow)
	w.RegisterActivity(&workflows.FootprintActivities{Footprints: svc})

	// Queued requests from POST /v1/footprints/async
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, cfg.Worker.Durable, cfg.Worker.MaxDeliver)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	h := &requestHandler{
		footprints: svc,
		starter:    c,
		limiter:    rate.NewLimiter(rate.Limit(cfg.Worker.RatePerSec), max(cfg.Worker.Burst, 1)),
	}
	if err := sub.SubscribeFootprintRequests(ctx, h.handle); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("footprint worker started", "taskQueue", workflows.TaskQueue, "durable", cfg.Worker.Durable)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
	slog.Info("worker stopped")
}

// workflowStarter is the part of client.Client the consumer uses.
type workflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// requestHandler turns queued requests into workflow runs.
type requestHandler struct {
	footprints *usecases.FootprintService
	starter    workflowStarter
	limiter    *rate.Limiter
}

// handle validates a request and starts its workflow. The workflow ID is
// derived from the request ID, so a redelivered message joins the run
// already in flight. The request ID must be a UUID: it becomes the record ID.
func (h *requestHandler) handle(ctx context.Context, req *domain.FootprintRequest) error {
	if _, err := uuid.Parse(req.RequestID); err != nil {
		metrics.FootprintRequestsConsumed.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: request id %q is not a uuid", domain.ErrMissingItinerary, req.RequestID)
	}
	if _, err := h.footprints.EstimateRequest(ctx, req); err != nil {
		if domain.IsInvalidInput(err) {
			metrics.FootprintRequestsConsumed.WithLabelValues("invalid").Inc()
		} else {
			metrics.FootprintRequestsConsumed.WithLabelValues("error").Inc()
		}
		return err
	}

	if err := h.limiter.Wait(ctx); err != nil {
		metrics.FootprintRequestsConsumed.WithLabelValues("error").Inc()
		return err
	}

	run, err := h.starter.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "footprint-" + req.RequestID,
		TaskQueue: workflows.TaskQueue,
	}, workflows.FootprintWorkflow, *req)
	if err != nil {
		metrics.FootprintRequestsConsumed.WithLabelValues("error").Inc()
		return fmt.Errorf("start workflow: %w", err)
	}

	metrics.FootprintRequestsConsumed.WithLabelValues("started").Inc()
	slog.Info("footprint workflow started", "requestID", req.RequestID, "workflowID", run.GetID(), "runID", run.GetRunID())
	return nil
}
