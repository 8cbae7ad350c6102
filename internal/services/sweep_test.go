package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/savioxavier/swe-group-7/internal/data/repos/testutil"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
)

func TestSweepsWithNothingToDo(t *testing.T) {
	e := newTestEnv(t)

	rep, err := e.sweep.RunDecay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, rep.Processed)
	require.Equal(t, 0, rep.Failed)

	rep, err = e.sweep.RunHarvest(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 0, rep.Processed)

	last, err := e.runs.LastFor(e.dbc, garden.SweepHarvest)
	require.NoError(t, err)
	require.NotNil(t, last.FinishedAt)
}

func TestDecaySweepCoversEveryUserOnce(t *testing.T) {
	e := newTestEnv(t)
	a := e.plant(t, 0, 0)
	other := uuid.New()
	b, err := e.plants.Create(e.dbc, other, CreatePlantInput{Name: "b", PositionX: 0, PositionY: 0})
	require.NoError(t, err)
	_, err = e.progress.RecordActivity(e.dbc, e.user, 150, garden.ActivityWork)
	require.NoError(t, err)
	// A user with progress but no plants still decays.
	idle := uuid.New()
	_, err = e.progress.RecordActivity(e.dbc, idle, 50, garden.ActivityCare)
	require.NoError(t, err)

	e.advanceDays(2)
	rep, err := e.sweep.RunDecay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, rep.Processed)
	require.Equal(t, 0, rep.Failed)
	// two plants plus the two users that have progress
	require.Equal(t, 4, rep.Changed)
	require.Equal(t, garden.DecaySlightlyWilted, e.reload(t, a.ID).DecayStatus)
	require.Equal(t, garden.DecaySlightlyWilted, e.reload(t, b.ID).DecayStatus)

	e.clk.Advance(time.Minute)
	again, err := e.sweep.RunDecay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, again.Changed, "second run on the same day changes nothing")

	last, err := e.runs.LastFor(e.dbc, garden.SweepDecay)
	require.NoError(t, err)
	require.Equal(t, again.RunID, last.ID)
	require.Equal(t, 3, last.Processed)
}

func TestDecaySweepIsRateLimited(t *testing.T) {
	e := newTestEnv(t)
	e.plant(t, 0, 0)
	_, err := e.plants.Create(e.dbc, uuid.New(), CreatePlantInput{Name: "b", PositionX: 0, PositionY: 0})
	require.NoError(t, err)

	// One user per ~17 minutes: the second user cannot fit in the deadline.
	slow := NewSweepService(e.rt, testutil.Logger(t), e.plantRepo, e.progressRepo, e.runs, e.decay, e.harvest, 0.001)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rep, err := slow.RunDecay(ctx)
	require.Error(t, err)
	require.Equal(t, 1, rep.Processed)

	last, err := e.runs.LastFor(e.dbc, garden.SweepDecay)
	require.NoError(t, err)
	require.NotNil(t, last.FinishedAt)
	require.Equal(t, 1, last.Failed)
}

func TestHarvestSweep(t *testing.T) {
	e := newTestEnv(t)
	p := e.plant(t, 0, 0)
	e.force(t, p.ID, func(p *garden.Plant) { p.GrowthLevel = 80 })
	_, err := e.harvest.Complete(e.dbc, e.user, p.ID)
	require.NoError(t, err)

	rep, err := e.sweep.RunHarvest(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Processed)
	require.Equal(t, 0, rep.Changed)

	rep, err = e.sweep.RunHarvest(context.Background(), true)
	require.NoError(t, err)
	require.True(t, rep.Forced)
	require.Equal(t, 1, rep.Changed)
	require.False(t, e.reload(t, p.ID).IsActive)
}

func TestMutateRetriesVersionConflicts(t *testing.T) {
	e := newTestEnv(t)

	attempts := 0
	err := e.rt.mutate(e.dbc, "test", []string{"k"}, func(tx dbctx.Context, out *outbox) error {
		attempts++
		if attempts < 2 {
			return apierr.Conflict("version_conflict", "moved")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)

	attempts = 0
	err = e.rt.mutate(e.dbc, "test", nil, func(tx dbctx.Context, out *outbox) error {
		attempts++
		return apierr.Conflict("version_conflict", "moved")
	})
	require.True(t, apierr.Is(err, apierr.KindConflict))
	require.Equal(t, maxAttempts, attempts)

	attempts = 0
	err = e.rt.mutate(e.dbc, "test", nil, func(tx dbctx.Context, out *outbox) error {
		attempts++
		return apierr.Conflict("position_occupied", "taken")
	})
	require.Equal(t, "position_occupied", apierr.CodeOf(err))
	require.Equal(t, 1, attempts, "only version conflicts are retried")
}

func TestMutatePublishesOnlyAfterCommit(t *testing.T) {
	e := newTestEnv(t)
	p := e.plant(t, 0, 0)

	e.force(t, p.ID, func(p *garden.Plant) { p.GrowthLevel = 10 })
	_, err := e.harvest.Complete(e.dbc, e.user, p.ID)
	require.Error(t, err)
	require.Empty(t, e.rec.Events)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = e.work.LogWork(dbctx.New(ctx), e.user, p.ID, 1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, e.rec.Events)
}
