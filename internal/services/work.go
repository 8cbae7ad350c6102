package services

import (
	"time"

	"github.com/google/uuid"

	gardenrepo "github.com/savioxavier/swe-group-7/internal/data/repos/garden"
	"github.com/savioxavier/swe-group-7/internal/datastore"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/progression"
)

type WorkResult struct {
	Plant     *garden.Plant        `json:"plant"`
	Progress  *garden.UserProgress `json:"progress"`
	Log       *garden.TaskTimeLog  `json:"time_log"`
	XPGained  int                  `json:"xp_gained"`
	LeveledUp bool                 `json:"leveled_up"`
}

type WorkService interface {
	// LogWork records hours on a plant. workDate is the calendar day the hours
	// belong to; nil means today.
	LogWork(dbc dbctx.Context, userID, plantID uuid.UUID, hours float64, workDate *time.Time) (*WorkResult, error)
	ListTimeLogs(dbc dbctx.Context, userID, plantID uuid.UUID) ([]garden.TaskTimeLog, error)
}

type workService struct {
	rt     *Runtime
	log    *logger.Logger
	plants gardenrepo.PlantRepo
	logs   gardenrepo.TimeLogRepo
	ledger *ledger
}

func NewWorkService(
	rt *Runtime,
	baseLog *logger.Logger,
	plants gardenrepo.PlantRepo,
	progress gardenrepo.UserProgressRepo,
	logs gardenrepo.TimeLogRepo,
) WorkService {
	return &workService{
		rt:     rt,
		log:    baseLog.With("service", "WorkService"),
		plants: plants,
		logs:   logs,
		ledger: &ledger{rt: rt, repo: progress},
	}
}

func (s *workService) LogWork(dbc dbctx.Context, userID, plantID uuid.UUID, hours float64, workDate *time.Time) (*WorkResult, error) {
	if err := validateHours(hours, false, s.rt.Balance.MaxHoursPerLog); err != nil {
		return nil, err
	}
	res := &WorkResult{}
	err := s.rt.mutate(dbc, "plant.work", []string{plantKey(plantID), progressKey(userID)}, func(tx dbctx.Context, out *outbox) error {
		now, today := s.rt.now()
		day := today
		if workDate != nil {
			day = s.rt.Calendar.DayOf(*workDate)
			if day.After(today) {
				return apierr.Validation("invalid_work_date", "work date is in the future")
			}
		}
		p, err := loadWorkable(tx, s.plants, userID, plantID)
		if err != nil {
			return err
		}
		expected := p.Version
		xp := progression.HoursToXP(hours)
		// Multi-step growth is milestone driven, so hours never move plant XP.
		if !p.IsMultiStep {
			p.ExperiencePoints += xp
			p.TaskLevel, p.GrowthLevel = progression.SingleStepGrowth(p.ExperiencePoints)
		}
		markWorked(p, today)
		if err := s.plants.Save(tx, p, expected); err != nil {
			return err
		}
		entry := &garden.TaskTimeLog{
			PlantID:          p.ID,
			UserID:           userID,
			Hours:            hours,
			ExperienceGained: xp,
			WorkDate:         day,
			CreatedAt:        now,
		}
		if err := s.logs.Create(tx, entry); err != nil {
			return err
		}
		before, err := s.ledger.repo.GetOrInit(tx, userID)
		if err != nil {
			return err
		}
		prog, err := s.ledger.award(tx, out, userID, xp, garden.ActivityWork, now)
		if err != nil {
			return err
		}
		*res = WorkResult{Plant: p, Progress: prog, Log: entry, XPGained: xp, LeveledUp: prog.Level > before.Level}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("work logged", "plant_id", plantID, "user_id", userID, "hours", hours, "xp", res.XPGained)
	return res, nil
}

func (s *workService) ListTimeLogs(dbc dbctx.Context, userID, plantID uuid.UUID) ([]garden.TaskTimeLog, error) {
	if _, err := s.plants.GetByID(dbc, datastore.Owner(userID), plantID); err != nil {
		return nil, err
	}
	return s.logs.ListByPlant(dbc, datastore.Owner(userID), plantID)
}

// validateHours enforces 0 < h <= limit; optional also admits 0.
func validateHours(hours float64, optional bool, limit float64) error {
	if optional && hours == 0 {
		return nil
	}
	if !(hours > 0) || hours > limit {
		return apierr.Validation("invalid_hours", "hours must be greater than 0 and at most %g", limit)
	}
	return nil
}

// loadWorkable fetches a plant that can still take work: in the garden and
// not yet completed.
func loadWorkable(tx dbctx.Context, plants gardenrepo.PlantRepo, userID, plantID uuid.UUID) (*garden.Plant, error) {
	p, err := plants.GetByID(tx, datastore.Owner(userID), plantID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apierr.InvalidState("plant_inactive", "plant %s is no longer in the garden", plantID)
	}
	if p.TaskStatus != garden.TaskStatusActive {
		return nil, apierr.InvalidState("task_not_active", "plant %s is %s", plantID, p.TaskStatus)
	}
	return p, nil
}
