package garden

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/savioxavier/swe-group-7/internal/datastore"
	types "github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

type PlantRepo interface {
	Create(dbc dbctx.Context, plant *types.Plant) error
	GetByID(dbc dbctx.Context, scope datastore.Scope, id uuid.UUID) (*types.Plant, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, includeInactive bool) ([]types.Plant, error)
	ListDecayCandidates(dbc dbctx.Context, userID uuid.UUID) ([]types.Plant, error)
	ListCompletedActive(dbc dbctx.Context, userID *uuid.UUID) ([]types.Plant, error)
	ListTrophyCandidates(dbc dbctx.Context, userID *uuid.UUID) ([]types.Plant, error)
	ListOwnerIDs(dbc dbctx.Context) ([]uuid.UUID, error)
	CellOccupied(dbc dbctx.Context, userID uuid.UUID, x, y int, excludeID *uuid.UUID) (bool, error)
	Save(dbc dbctx.Context, plant *types.Plant, expectedVersion int) error
}

type plantRepo struct {
	table *datastore.Table[types.Plant]
	log   *logger.Logger
}

func NewPlantRepo(db *gorm.DB, baseLog *logger.Logger) (PlantRepo, error) {
	log := baseLog.With("repo", "PlantRepo")
	table, err := datastore.NewTable[types.Plant](db, log, datastore.WithOrder("created_at ASC"))
	if err != nil {
		return nil, err
	}
	return &plantRepo{table: table, log: log}, nil
}

func (r *plantRepo) Create(dbc dbctx.Context, plant *types.Plant) error {
	if plant == nil {
		return apierr.Validation("missing_plant", "plant required")
	}
	if err := r.table.Insert(dbc, datastore.Owner(plant.UserID), plant); err != nil {
		if apierr.Is(err, apierr.KindConflict) {
			return apierr.Conflict("position_occupied", "Position already occupied")
		}
		return err
	}
	return nil
}

func (r *plantRepo) GetByID(dbc dbctx.Context, scope datastore.Scope, id uuid.UUID) (*types.Plant, error) {
	p, err := r.table.First(dbc, scope, datastore.Eq("id", id))
	if apierr.Is(err, apierr.KindNotFound) {
		return nil, apierr.NotFound("plant_not_found", "plant %s not found", id)
	}
	return p, err
}

func (r *plantRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, includeInactive bool) ([]types.Plant, error) {
	if includeInactive {
		return r.table.Get(dbc, datastore.Owner(userID))
	}
	return r.table.Get(dbc, datastore.Owner(userID), datastore.Eq("is_active", true))
}

func (r *plantRepo) ListDecayCandidates(dbc dbctx.Context, userID uuid.UUID) ([]types.Plant, error) {
	return r.table.Get(dbc, datastore.Owner(userID),
		datastore.Eq("is_active", true),
		datastore.Eq("task_status", types.TaskStatusActive),
	)
}

func (r *plantRepo) ListCompletedActive(dbc dbctx.Context, userID *uuid.UUID) ([]types.Plant, error) {
	return r.table.Get(dbc, scopeFor(userID),
		datastore.Eq("is_active", true),
		datastore.Eq("task_status", types.TaskStatusCompleted),
	)
}

// ListTrophyCandidates finds fully grown plants that were never completed.
func (r *plantRepo) ListTrophyCandidates(dbc dbctx.Context, userID *uuid.UUID) ([]types.Plant, error) {
	return r.table.Get(dbc, scopeFor(userID),
		datastore.Eq("is_active", true),
		datastore.Eq("task_status", types.TaskStatusActive),
		datastore.Gte("growth_level", 100),
	)
}

func (r *plantRepo) ListOwnerIDs(dbc dbctx.Context) ([]uuid.UUID, error) {
	return datastore.Pluck[types.Plant, uuid.UUID](dbc, r.table, datastore.Service(), "user_id", datastore.Eq("is_active", true))
}

func (r *plantRepo) CellOccupied(dbc dbctx.Context, userID uuid.UUID, x, y int, excludeID *uuid.UUID) (bool, error) {
	filters := []datastore.Filter{
		datastore.Eq("is_active", true),
		datastore.Eq("position_x", x),
		datastore.Eq("position_y", y),
	}
	if excludeID != nil {
		filters = append(filters, datastore.Neq("id", *excludeID))
	}
	n, err := r.table.Count(dbc, datastore.Owner(userID), filters...)
	return n > 0, err
}

func (r *plantRepo) Save(dbc dbctx.Context, plant *types.Plant, expectedVersion int) error {
	err := r.table.SaveVersioned(dbc, datastore.Owner(plant.UserID), plant, expectedVersion)
	if apierr.Is(err, apierr.KindConflict) && apierr.CodeOf(err) == "duplicate" {
		return apierr.Conflict("position_occupied", "Position already occupied")
	}
	return err
}

func scopeFor(userID *uuid.UUID) datastore.Scope {
	if userID == nil {
		return datastore.Service()
	}
	return datastore.Owner(*userID)
}
