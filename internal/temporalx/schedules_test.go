package temporalx

import (
	"testing"

	enumspb "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/savioxavier/swe-group-7/internal/temporalx/sweepflow"
)

func TestCronFromClock(t *testing.T) {
	if got := CronFromClock(0, 1); got != "1 0 * * *" {
		t.Fatalf("00:01: got=%q", got)
	}
	if got := CronFromClock(23, 45); got != "45 23 * * *" {
		t.Fatalf("23:45: got=%q", got)
	}
}

func TestScheduleOptionsSkipOverlap(t *testing.T) {
	cfg := Config{TaskQueue: "q", TimeZone: "America/New_York", DecayCron: "1 0 * * *", HarvestCron: "5 0 * * *"}
	defs := scheduleDefs(cfg)
	if len(defs) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(defs))
	}
	for _, def := range defs {
		opts := scheduleOptions(cfg, def)
		if opts.Overlap != enumspb.SCHEDULE_OVERLAP_POLICY_SKIP {
			t.Fatalf("%s: overlap=%v", def.id, opts.Overlap)
		}
		if opts.Spec.TimeZoneName != cfg.TimeZone {
			t.Fatalf("%s: tz=%q", def.id, opts.Spec.TimeZoneName)
		}
		action, ok := opts.Action.(*temporalsdkclient.ScheduleWorkflowAction)
		if !ok || action.TaskQueue != "q" {
			t.Fatalf("%s: bad action %#v", def.id, opts.Action)
		}
	}
	harvest := scheduleOptions(cfg, defs[1]).Action.(*temporalsdkclient.ScheduleWorkflowAction)
	if harvest.Workflow != sweepflow.HarvestWorkflowName || len(harvest.Args) != 1 {
		t.Fatalf("harvest action: %#v", harvest)
	}
	if in, ok := harvest.Args[0].(sweepflow.HarvestInput); !ok || in.Force {
		t.Fatalf("scheduled harvest must not force: %#v", harvest.Args[0])
	}
}
