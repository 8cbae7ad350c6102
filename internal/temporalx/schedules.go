package temporalx

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/temporalx/sweepflow"
)

const (
	DecayScheduleID   = "garden-decay-daily"
	HarvestScheduleID = "garden-harvest-daily"
)

type scheduleDef struct {
	id       string
	cron     string
	workflow string
	args     []any
}

func scheduleDefs(cfg Config) []scheduleDef {
	return []scheduleDef{
		{id: DecayScheduleID, cron: cfg.DecayCron, workflow: sweepflow.DecayWorkflowName},
		{id: HarvestScheduleID, cron: cfg.HarvestCron, workflow: sweepflow.HarvestWorkflowName, args: []any{sweepflow.HarvestInput{}}},
	}
}

// EnsureSchedules creates the daily sweep schedules. Existing schedules are
// left untouched; a run that would overlap the previous one is skipped.
func EnsureSchedules(ctx context.Context, c temporalsdkclient.Client, cfg Config, log *logger.Logger) error {
	if c == nil {
		return nil
	}
	sc := c.ScheduleClient()
	for _, def := range scheduleDefs(cfg) {
		_, err := sc.Create(ctx, scheduleOptions(cfg, def))
		switch {
		case err == nil:
			log.Info("Temporal schedule created", "schedule_id", def.id, "cron", def.cron, "tz", cfg.TimeZone)
		case errors.Is(err, temporal.ErrScheduleAlreadyRunning):
			log.Debug("Temporal schedule exists", "schedule_id", def.id)
		default:
			return fmt.Errorf("create schedule %s: %w", def.id, err)
		}
	}
	return nil
}

func scheduleOptions(cfg Config, def scheduleDef) temporalsdkclient.ScheduleOptions {
	return temporalsdkclient.ScheduleOptions{
		ID: def.id,
		Spec: temporalsdkclient.ScheduleSpec{
			CronExpressions: []string{def.cron},
			TimeZoneName:    cfg.TimeZone,
		},
		Action: &temporalsdkclient.ScheduleWorkflowAction{
			ID:        def.id + "-run",
			Workflow:  def.workflow,
			Args:      def.args,
			TaskQueue: cfg.TaskQueue,
		},
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	}
}
