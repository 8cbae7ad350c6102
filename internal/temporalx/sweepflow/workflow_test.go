package sweepflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/services"
)

type fakeSweeps struct {
	decayCalls int
	forced     []bool
	err        error
}

func (f *fakeSweeps) RunDecay(context.Context) (*services.SweepReport, error) {
	f.decayCalls++
	return &services.SweepReport{RunID: uuid.New(), Kind: garden.SweepDecay, Processed: 3, Changed: 2}, f.err
}

func (f *fakeSweeps) RunHarvest(_ context.Context, force bool) (*services.SweepReport, error) {
	f.forced = append(f.forced, force)
	return &services.SweepReport{RunID: uuid.New(), Kind: garden.SweepHarvest, Forced: force, Processed: 1, Changed: 1}, f.err
}

func newEnv(t *testing.T, sweeps services.SweepService) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	acts := &Activities{Log: logger.Nop(), Sweeps: sweeps}
	env.RegisterActivityWithOptions(acts.Decay, activity.RegisterOptions{Name: ActivityDecay})
	env.RegisterActivityWithOptions(acts.Harvest, activity.RegisterOptions{Name: ActivityHarvest})
	return env
}

func TestDecayWorkflowRunsSweep(t *testing.T) {
	sweeps := &fakeSweeps{}
	env := newEnv(t, sweeps)

	env.ExecuteWorkflow(DecayWorkflow)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var out Summary
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, string(garden.SweepDecay), out.Kind)
	require.Equal(t, 3, out.Processed)
	require.Equal(t, 2, out.Changed)
	require.Equal(t, 1, sweeps.decayCalls)
}

func TestHarvestWorkflowPassesForce(t *testing.T) {
	sweeps := &fakeSweeps{}
	env := newEnv(t, sweeps)

	env.ExecuteWorkflow(HarvestWorkflow, HarvestInput{Force: true})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.Equal(t, []bool{true}, sweeps.forced)
}

func TestDecayWorkflowRetriesFailedSweep(t *testing.T) {
	sweeps := &fakeSweeps{err: errors.New("database unavailable")}
	env := newEnv(t, sweeps)

	env.ExecuteWorkflow(DecayWorkflow)

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	require.Equal(t, 3, sweeps.decayCalls)
}
