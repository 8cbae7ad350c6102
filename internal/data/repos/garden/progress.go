package garden

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/savioxavier/swe-group-7/internal/datastore"
	types "github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

type UserProgressRepo interface {
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserProgress, error)
	// GetOrInit returns the stored row or an unsaved zero-state row.
	GetOrInit(dbc dbctx.Context, userID uuid.UUID) (*types.UserProgress, error)
	Save(dbc dbctx.Context, progress *types.UserProgress, expectedVersion int) error
	ListUserIDs(dbc dbctx.Context) ([]uuid.UUID, error)
}

type userProgressRepo struct {
	table *datastore.Table[types.UserProgress]
	log   *logger.Logger
}

func NewUserProgressRepo(db *gorm.DB, baseLog *logger.Logger) (UserProgressRepo, error) {
	log := baseLog.With("repo", "UserProgressRepo")
	table, err := datastore.NewTable[types.UserProgress](db, log)
	if err != nil {
		return nil, err
	}
	return &userProgressRepo{table: table, log: log}, nil
}

func (r *userProgressRepo) Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserProgress, error) {
	p, err := r.table.First(dbc, datastore.Owner(userID))
	if apierr.Is(err, apierr.KindNotFound) {
		return nil, apierr.NotFound("progress_not_found", "no progress for user")
	}
	return p, err
}

func (r *userProgressRepo) GetOrInit(dbc dbctx.Context, userID uuid.UUID) (*types.UserProgress, error) {
	p, err := r.Get(dbc, userID)
	if apierr.Is(err, apierr.KindNotFound) {
		return types.NewUserProgress(userID), nil
	}
	return p, err
}

// Save inserts a row that was never persisted and otherwise performs a
// versioned update. Two first-writes racing surface as Conflict.
func (r *userProgressRepo) Save(dbc dbctx.Context, progress *types.UserProgress, expectedVersion int) error {
	if progress.CreatedAt.IsZero() {
		progress.Version = expectedVersion + 1
		if err := r.table.Insert(dbc, datastore.Owner(progress.UserID), progress); err != nil {
			progress.Version = expectedVersion
			progress.CreatedAt = time.Time{}
			return err
		}
		return nil
	}
	return r.table.SaveVersioned(dbc, datastore.Owner(progress.UserID), progress, expectedVersion)
}

func (r *userProgressRepo) ListUserIDs(dbc dbctx.Context) ([]uuid.UUID, error) {
	return datastore.Pluck[types.UserProgress, uuid.UUID](dbc, r.table, datastore.Service(), "user_id")
}
