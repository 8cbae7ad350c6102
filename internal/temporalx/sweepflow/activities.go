package sweepflow

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/services"
)

type Activities struct {
	Log    *logger.Logger
	Sweeps services.SweepService
}

func (a *Activities) Decay(ctx context.Context) (Summary, error) {
	if a == nil || a.Sweeps == nil {
		return Summary{}, fmt.Errorf("sweepflow: activity not configured")
	}
	report, err := a.Sweeps.RunDecay(ctx)
	return a.summarize(ctx, report, err)
}

func (a *Activities) Harvest(ctx context.Context, in HarvestInput) (Summary, error) {
	if a == nil || a.Sweeps == nil {
		return Summary{}, fmt.Errorf("sweepflow: activity not configured")
	}
	report, err := a.Sweeps.RunHarvest(ctx, in.Force)
	return a.summarize(ctx, report, err)
}

func (a *Activities) summarize(ctx context.Context, report *services.SweepReport, err error) (Summary, error) {
	if report == nil {
		return Summary{}, err
	}
	out := Summary{
		RunID:     report.RunID.String(),
		Kind:      string(report.Kind),
		Processed: report.Processed,
		Changed:   report.Changed,
		Failed:    report.Failed,
	}
	if a.Log != nil {
		info := activity.GetInfo(ctx)
		a.Log.Info("sweep activity finished",
			"workflow_id", info.WorkflowExecution.ID,
			"kind", out.Kind,
			"processed", out.Processed,
			"failed", out.Failed,
		)
	}
	return out, err
}
