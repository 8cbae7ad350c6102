package garden

import (
	"time"

	"gorm.io/gorm"

	"github.com/savioxavier/swe-group-7/internal/datastore"
	types "github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

type SweepRunRepo interface {
	Start(dbc dbctx.Context, kind types.SweepKind, day time.Time, forced bool, startedAt time.Time) (*types.SweepRun, error)
	Finish(dbc dbctx.Context, run *types.SweepRun) error
	LastFor(dbc dbctx.Context, kind types.SweepKind) (*types.SweepRun, error)
}

type sweepRunRepo struct {
	table *datastore.Table[types.SweepRun]
	log   *logger.Logger
}

func NewSweepRunRepo(db *gorm.DB, baseLog *logger.Logger) (SweepRunRepo, error) {
	log := baseLog.With("repo", "SweepRunRepo")
	table, err := datastore.NewTable[types.SweepRun](db, log, datastore.WithOrder("started_at DESC"))
	if err != nil {
		return nil, err
	}
	return &sweepRunRepo{table: table, log: log}, nil
}

func (r *sweepRunRepo) Start(dbc dbctx.Context, kind types.SweepKind, day time.Time, forced bool, startedAt time.Time) (*types.SweepRun, error) {
	run := &types.SweepRun{Kind: kind, Day: day, Forced: forced, StartedAt: startedAt}
	if err := r.table.Insert(dbc, datastore.Service(), run); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *sweepRunRepo) Finish(dbc dbctx.Context, run *types.SweepRun) error {
	_, err := r.table.Update(dbc, datastore.Service(), map[string]any{
		"finished_at": run.FinishedAt,
		"processed":   run.Processed,
		"changed":     run.Changed,
		"failed":      run.Failed,
		"errors":      run.Errors,
	}, datastore.Eq("id", run.ID))
	return err
}

func (r *sweepRunRepo) LastFor(dbc dbctx.Context, kind types.SweepKind) (*types.SweepRun, error) {
	return r.table.First(dbc, datastore.Service(), datastore.Eq("kind", kind))
}
