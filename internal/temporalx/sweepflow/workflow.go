package sweepflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

func activityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Hour,
		// Sweeps are idempotent per day.
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Minute,
			BackoffCoefficient: 2,
			MaximumInterval:    15 * time.Minute,
			MaximumAttempts:    3,
		},
	})
}

func DecayWorkflow(ctx workflow.Context) (Summary, error) {
	var out Summary
	err := workflow.ExecuteActivity(activityOptions(ctx), ActivityDecay).Get(ctx, &out)
	if err != nil {
		return out, err
	}
	workflow.GetLogger(ctx).Info("decay sweep done", "processed", out.Processed, "changed", out.Changed, "failed", out.Failed)
	return out, nil
}

func HarvestWorkflow(ctx workflow.Context, in HarvestInput) (Summary, error) {
	var out Summary
	err := workflow.ExecuteActivity(activityOptions(ctx), ActivityHarvest, in).Get(ctx, &out)
	if err != nil {
		return out, err
	}
	workflow.GetLogger(ctx).Info("harvest sweep done", "processed", out.Processed, "changed", out.Changed, "failed", out.Failed)
	return out, nil
}
