package garden

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/savioxavier/swe-group-7/internal/datastore"
	types "github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

type TimeLogRepo interface {
	Create(dbc dbctx.Context, entry *types.TaskTimeLog) error
	ListByPlant(dbc dbctx.Context, scope datastore.Scope, plantID uuid.UUID) ([]types.TaskTimeLog, error)
}

type timeLogRepo struct {
	table *datastore.Table[types.TaskTimeLog]
	log   *logger.Logger
}

func NewTimeLogRepo(db *gorm.DB, baseLog *logger.Logger) (TimeLogRepo, error) {
	log := baseLog.With("repo", "TimeLogRepo")
	table, err := datastore.NewTable[types.TaskTimeLog](db, log, datastore.WithOrder("created_at DESC"))
	if err != nil {
		return nil, err
	}
	return &timeLogRepo{table: table, log: log}, nil
}

func (r *timeLogRepo) Create(dbc dbctx.Context, entry *types.TaskTimeLog) error {
	return r.table.Insert(dbc, datastore.Owner(entry.UserID), entry)
}

func (r *timeLogRepo) ListByPlant(dbc dbctx.Context, scope datastore.Scope, plantID uuid.UUID) ([]types.TaskTimeLog, error) {
	return r.table.Get(dbc, scope, datastore.Eq("plant_id", plantID))
}

type CareLogRepo interface {
	Create(dbc dbctx.Context, entry *types.PlantCareLog) error
	ListByPlant(dbc dbctx.Context, scope datastore.Scope, plantID uuid.UUID) ([]types.PlantCareLog, error)
}

type careLogRepo struct {
	table *datastore.Table[types.PlantCareLog]
	log   *logger.Logger
}

func NewCareLogRepo(db *gorm.DB, baseLog *logger.Logger) (CareLogRepo, error) {
	log := baseLog.With("repo", "CareLogRepo")
	table, err := datastore.NewTable[types.PlantCareLog](db, log, datastore.WithOrder("created_at DESC"))
	if err != nil {
		return nil, err
	}
	return &careLogRepo{table: table, log: log}, nil
}

func (r *careLogRepo) Create(dbc dbctx.Context, entry *types.PlantCareLog) error {
	return r.table.Insert(dbc, datastore.Owner(entry.UserID), entry)
}

func (r *careLogRepo) ListByPlant(dbc dbctx.Context, scope datastore.Scope, plantID uuid.UUID) ([]types.PlantCareLog, error) {
	return r.table.Get(dbc, scope, datastore.Eq("plant_id", plantID))
}
