package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	gardenrepo "github.com/savioxavier/swe-group-7/internal/data/repos/garden"
	"github.com/savioxavier/swe-group-7/internal/data/repos/testutil"
	"github.com/savioxavier/swe-group-7/internal/datastore"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/observability"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/realtime"
)

var testStart = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	rt  *Runtime
	clk *clock.Fake
	rec *realtime.Recorder
	dbc dbctx.Context

	plantRepo    gardenrepo.PlantRepo
	progressRepo gardenrepo.UserProgressRepo
	timeLogs     gardenrepo.TimeLogRepo
	careLogs     gardenrepo.CareLogRepo
	runs         gardenrepo.SweepRunRepo

	progress ProgressService
	plants   PlantService
	work     WorkService
	steps    StepService
	harvest  HarvestService
	decay    DecayService
	sweep    SweepService

	user uuid.UUID
}

func newTestEnv(t *testing.T, tweak ...func(*garden.Balance)) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	balance := garden.DefaultBalance()
	for _, fn := range tweak {
		fn(&balance)
	}
	clk := clock.NewFake(testStart)
	rec := &realtime.Recorder{}
	rt := NewRuntime(db, clk, clock.Calendar{Loc: time.UTC}, balance, observability.NewMetrics(prometheus.NewRegistry()), rec)

	e := &testEnv{rt: rt, clk: clk, rec: rec, dbc: dbctx.New(context.Background()), user: uuid.New()}
	var err error
	e.plantRepo, err = gardenrepo.NewPlantRepo(db, log)
	require.NoError(t, err)
	e.progressRepo, err = gardenrepo.NewUserProgressRepo(db, log)
	require.NoError(t, err)
	e.timeLogs, err = gardenrepo.NewTimeLogRepo(db, log)
	require.NoError(t, err)
	e.careLogs, err = gardenrepo.NewCareLogRepo(db, log)
	require.NoError(t, err)
	e.runs, err = gardenrepo.NewSweepRunRepo(db, log)
	require.NoError(t, err)

	e.progress = NewProgressService(rt, log, e.progressRepo)
	e.plants = NewPlantService(rt, log, e.plantRepo, e.progressRepo, e.careLogs)
	e.work = NewWorkService(rt, log, e.plantRepo, e.progressRepo, e.timeLogs)
	e.steps = NewStepService(rt, log, e.plantRepo, e.progressRepo, e.timeLogs)
	e.harvest = NewHarvestService(rt, log, e.plantRepo, e.progressRepo, e.careLogs)
	e.decay = NewDecayService(rt, log, e.plantRepo, e.progress)
	e.sweep = NewSweepService(rt, log, e.plantRepo, e.progressRepo, e.runs, e.decay, e.harvest, 0)
	return e
}

func (e *testEnv) plant(t *testing.T, x, y int, steps ...string) *garden.Plant {
	t.Helper()
	in := CreatePlantInput{Name: "task", Category: "study", PositionX: x, PositionY: y}
	for _, s := range steps {
		in.Steps = append(in.Steps, StepInput{Title: s})
	}
	p, err := e.plants.Create(e.dbc, e.user, in)
	require.NoError(t, err)
	return p
}

// force rewrites stored plant fields, bypassing the services.
func (e *testEnv) force(t *testing.T, id uuid.UUID, mutate func(p *garden.Plant)) *garden.Plant {
	t.Helper()
	p, err := e.plantRepo.GetByID(e.dbc, datastore.Service(), id)
	require.NoError(t, err)
	mutate(p)
	require.NoError(t, e.plantRepo.Save(e.dbc, p, p.Version))
	return p
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *garden.Plant {
	t.Helper()
	p, err := e.plantRepo.GetByID(e.dbc, datastore.Service(), id)
	require.NoError(t, err)
	return p
}

func (e *testEnv) today() time.Time {
	return e.rt.Calendar.Today(e.clk)
}

func (e *testEnv) daysAgo(n int) *time.Time {
	d := clock.AddDays(e.today(), -n)
	return &d
}

func (e *testEnv) advanceDays(n int) {
	e.clk.Advance(time.Duration(n) * 24 * time.Hour)
}
