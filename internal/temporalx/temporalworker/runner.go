package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/savioxavier/swe-group-7/internal/platform/envutil"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/services"
	"github.com/savioxavier/swe-group-7/internal/temporalx"
	"github.com/savioxavier/swe-group-7/internal/temporalx/sweepflow"
)

// Runner polls the sweep task queue and keeps the daily schedules registered.
type Runner struct {
	log    *logger.Logger
	tc     temporalsdkclient.Client
	cfg    temporalx.Config
	sweeps services.SweepService
}

func NewRunner(baseLog *logger.Logger, tc temporalsdkclient.Client, cfg temporalx.Config, sweeps services.SweepService) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if sweeps == nil {
		return nil, fmt.Errorf("temporal worker missing sweep service")
	}
	return &Runner{
		log:    baseLog.With("component", "TemporalWorker"),
		tc:     tc,
		cfg:    cfg,
		sweeps: sweeps,
	}, nil
}

// Run starts the worker, creates the schedules and blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	w, err := r.start(ctx)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := temporalx.EnsureSchedules(ctx, r.tc, r.cfg, r.log); err != nil {
		return err
	}
	<-ctx.Done()
	r.log.Info("Temporal worker stopping")
	return nil
}

func (r *Runner) start(ctx context.Context) (worker.Worker, error) {
	r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)

	maxWait := envutil.Duration("TEMPORAL_WORKER_START_MAX_WAIT", time.Minute)
	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			r.log.Info("Temporal worker started", "task_queue", r.cfg.TaskQueue, "attempts", attempt)
			return w, nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		missingNS := errors.As(startErr, &nfe)
		if missingNS && envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false) {
			if err := temporalx.EnsureNamespace(ctx, r.cfg, r.log); err != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", r.cfg.Namespace, "error", err)
			}
		}
		if maxWait <= 0 || time.Now().After(deadline) {
			if missingNS {
				return nil, fmt.Errorf("temporal namespace not found (namespace=%s): %w", r.cfg.Namespace, startErr)
			}
			return nil, startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
}

func (r *Runner) newWorker() worker.Worker {
	// One sweep activity at a time per process.
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     1,
		MaxConcurrentWorkflowTaskExecutionSize: 2,
	})
	acts := &sweepflow.Activities{Log: r.log, Sweeps: r.sweeps}

	w.RegisterWorkflowWithOptions(sweepflow.DecayWorkflow, workflow.RegisterOptions{Name: sweepflow.DecayWorkflowName})
	w.RegisterWorkflowWithOptions(sweepflow.HarvestWorkflow, workflow.RegisterOptions{Name: sweepflow.HarvestWorkflowName})
	w.RegisterActivityWithOptions(acts.Decay, activity.RegisterOptions{Name: sweepflow.ActivityDecay})
	w.RegisterActivityWithOptions(acts.Harvest, activity.RegisterOptions{Name: sweepflow.ActivityHarvest})
	return w
}
