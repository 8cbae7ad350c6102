package services

import (
	"time"

	"github.com/google/uuid"

	gardenrepo "github.com/savioxavier/swe-group-7/internal/data/repos/garden"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/progression"
	"github.com/savioxavier/swe-group-7/internal/realtime"
)

type ProgressService interface {
	// Get returns the stored progress or the zero state; it never persists.
	Get(dbc dbctx.Context, userID uuid.UUID) (*garden.UserProgress, error)
	RecordActivity(dbc dbctx.Context, userID uuid.UUID, xpDelta int, kind garden.ActivityKind) (*garden.UserProgress, error)
	ApplyDailyDecay(dbc dbctx.Context, userID uuid.UUID) (*UserDecayResult, error)
}

type UserDecayResult struct {
	Applied bool `json:"applied"`
	XPLost  int  `json:"xp_lost"`
	Level   int  `json:"level"`
}

// ledger applies XP to a user's progress row. Callers hold progressKey and an
// open transaction.
type ledger struct {
	rt   *Runtime
	repo gardenrepo.UserProgressRepo
}

func (l *ledger) award(tx dbctx.Context, out *outbox, userID uuid.UUID, delta int, kind garden.ActivityKind, now time.Time) (*garden.UserProgress, error) {
	p, err := l.repo.GetOrInit(tx, userID)
	if err != nil {
		return nil, err
	}
	expected := p.Version
	today := l.rt.Calendar.DayOf(now)
	levelBefore := p.Level
	total := p.TotalExperience

	if delta > 0 {
		st := progression.NextUserStreak(p.CurrentStreak, p.LongestStreak, p.LastActivityDate, today)
		if st.Gap > 1 {
			// Charge only the part of the gap the daily sweep has not.
			covered := *p.LastActivityDate
			if p.LastDecayDate != nil && p.LastDecayDate.After(covered) {
				covered = *p.LastDecayDate
			}
			if missed := clock.DaysBetween(covered, today); missed > 0 {
				penalty := progression.GapPenalty(total, p.CurrentStreak, missed)
				total -= penalty
				p.LastDecayDate = &today
			}
		}
		p.CurrentStreak = st.Current
		p.LongestStreak = st.Longest
		p.LastActivityDate = &today
	}

	total = progression.ApplyXP(total, delta)
	setLevel(p, total)

	switch kind {
	case garden.ActivityCompletion:
		p.TasksCompleted++
	case garden.ActivityHarvest:
		p.PlantsGrown++
	}

	if err := l.repo.Save(tx, p, expected); err != nil {
		return nil, err
	}

	if delta > 0 {
		out.emit(realtime.Event{Type: realtime.EventXPGained, UserID: userID, At: now, Data: map[string]any{
			"xp": delta, "activity": string(kind), "total_experience": p.TotalExperience,
		}})
		out.then(func() { l.rt.Metrics.XPAwarded(string(kind), delta) })
	}
	if p.Level > levelBefore {
		out.emit(realtime.Event{Type: realtime.EventLevelUp, UserID: userID, At: now, Data: map[string]any{
			"level": p.Level, "previous_level": levelBefore,
		}})
		out.then(l.rt.Metrics.LevelUp)
	}
	return p, nil
}

func setLevel(p *garden.UserProgress, total int) {
	lv := progression.LevelFromXP(total)
	p.TotalExperience = total
	p.Level = lv.Level
	p.CurrentLevelExperience = lv.Current
	p.ExperienceToNextLevel = lv.ToNext
}

type progressService struct {
	rt     *Runtime
	log    *logger.Logger
	repo   gardenrepo.UserProgressRepo
	ledger *ledger
}

func NewProgressService(rt *Runtime, baseLog *logger.Logger, repo gardenrepo.UserProgressRepo) ProgressService {
	return &progressService{
		rt:     rt,
		log:    baseLog.With("service", "ProgressService"),
		repo:   repo,
		ledger: &ledger{rt: rt, repo: repo},
	}
}

func (s *progressService) Get(dbc dbctx.Context, userID uuid.UUID) (*garden.UserProgress, error) {
	if userID == uuid.Nil {
		return nil, apierr.Validation("missing_user", "user id required")
	}
	return s.repo.GetOrInit(dbc, userID)
}

func (s *progressService) RecordActivity(dbc dbctx.Context, userID uuid.UUID, xpDelta int, kind garden.ActivityKind) (*garden.UserProgress, error) {
	if userID == uuid.Nil {
		return nil, apierr.Validation("missing_user", "user id required")
	}
	if xpDelta < 0 {
		return nil, apierr.Validation("negative_xp", "activity xp must not be negative")
	}
	var out *garden.UserProgress
	err := s.rt.mutate(dbc, "progress.record", []string{progressKey(userID)}, func(tx dbctx.Context, box *outbox) error {
		now, _ := s.rt.now()
		p, err := s.ledger.award(tx, box, userID, xpDelta, kind, now)
		out = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyDailyDecay charges one day of passive decay to a user who was not
// active today. A second call on the same day is a no-op.
func (s *progressService) ApplyDailyDecay(dbc dbctx.Context, userID uuid.UUID) (*UserDecayResult, error) {
	res := &UserDecayResult{}
	err := s.rt.mutate(dbc, "progress.decay", []string{progressKey(userID)}, func(tx dbctx.Context, _ *outbox) error {
		*res = UserDecayResult{}
		_, today := s.rt.now()
		p, err := s.repo.Get(tx, userID)
		if apierr.Is(err, apierr.KindNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res.Level = p.Level
		if p.LastActivityDate == nil || !p.LastActivityDate.Before(today) {
			return nil
		}
		if p.LastDecayDate != nil && !p.LastDecayDate.Before(today) {
			return nil
		}
		expected := p.Version
		before := p.TotalExperience
		setLevel(p, progression.ApplyXP(before, -progression.NetDecay(p.Level, p.CurrentStreak)))
		p.LastDecayDate = &today
		if err := s.repo.Save(tx, p, expected); err != nil {
			return err
		}
		res.Applied = true
		res.XPLost = before - p.TotalExperience
		res.Level = p.Level
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		s.log.Debug("user decay applied", "user_id", userID, "xp_lost", res.XPLost, "level", res.Level)
	}
	return res, nil
}
