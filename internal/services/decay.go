package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	gardenrepo "github.com/savioxavier/swe-group-7/internal/data/repos/garden"
	"github.com/savioxavier/swe-group-7/internal/datastore"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/progression"
	"github.com/savioxavier/swe-group-7/internal/realtime"
)

type PlantDecayOutcome struct {
	PlantID     uuid.UUID          `json:"plant_id"`
	Changed     bool               `json:"changed"`
	Died        bool               `json:"died"`
	DaysCharged int                `json:"days_charged"`
	XPLost      int                `json:"xp_lost"`
	From        garden.DecayStatus `json:"from"`
	To          garden.DecayStatus `json:"to"`
}

type UserDecaySummary struct {
	UserID  uuid.UUID           `json:"user_id"`
	Plants  []PlantDecayOutcome `json:"plants"`
	Changed int                 `json:"changed"`
	Died    int                 `json:"died"`
	Failed  int                 `json:"failed"`
	Errors  []string            `json:"errors,omitempty"`
	User    *UserDecayResult    `json:"user,omitempty"`
}

type DecayService interface {
	// DecayPlant ages one plant up to today. Days already charged by an
	// earlier run are skipped, so repeating it on the same day is a no-op.
	DecayPlant(dbc dbctx.Context, userID, plantID uuid.UUID, today time.Time) (*PlantDecayOutcome, error)
	// DecayUserPlants runs the daily pass for one user: every active plant,
	// then the user-level decay. One failing plant does not stop the rest.
	DecayUserPlants(dbc dbctx.Context, userID uuid.UUID) (*UserDecaySummary, error)
}

type decayService struct {
	rt       *Runtime
	log      *logger.Logger
	plants   gardenrepo.PlantRepo
	progress ProgressService
}

func NewDecayService(rt *Runtime, baseLog *logger.Logger, plants gardenrepo.PlantRepo, progress ProgressService) DecayService {
	return &decayService{
		rt:       rt,
		log:      baseLog.With("service", "DecayService"),
		plants:   plants,
		progress: progress,
	}
}

func (s *decayService) DecayPlant(dbc dbctx.Context, userID, plantID uuid.UUID, today time.Time) (*PlantDecayOutcome, error) {
	today = clock.Normalize(today)
	res := &PlantDecayOutcome{PlantID: plantID}
	err := s.rt.mutate(dbc, "plant.decay", []string{plantKey(plantID)}, func(tx dbctx.Context, out *outbox) error {
		*res = PlantDecayOutcome{PlantID: plantID}
		p, err := s.plants.GetByID(tx, datastore.Owner(userID), plantID)
		if err != nil {
			return err
		}
		res.From, res.To = p.DecayStatus, p.DecayStatus
		if !p.IsActive || p.TaskStatus != garden.TaskStatusActive {
			return nil
		}

		base := s.rt.Calendar.DayOf(p.CreatedAt)
		if p.LastWorkedDate != nil {
			base = clock.Normalize(*p.LastWorkedDate)
		}
		already := 0
		if p.LastDecayDate != nil && p.LastDecayDate.After(base) {
			already = clock.DaysBetween(base, *p.LastDecayDate)
		}
		d := progression.PlantDecay(progression.PlantDecayInput{
			ExperiencePoints:   p.ExperiencePoints,
			TaskLevel:          p.TaskLevel,
			CurrentStreak:      p.CurrentStreak,
			DaysWithoutCare:    p.DaysWithoutCare,
			IsMultiStep:        p.IsMultiStep,
			CompletedSteps:     p.CompletedSteps,
			DaysSinceWork:      clock.DaysBetween(base, today),
			DaysAlreadyDecayed: already,
		})
		if !d.Changed {
			return nil
		}

		expected := p.Version
		p.ExperiencePoints = d.ExperiencePoints
		p.TaskLevel = d.TaskLevel
		p.GrowthLevel = d.GrowthLevel
		p.CurrentStreak = d.CurrentStreak
		p.DaysWithoutCare = d.DaysWithoutCare
		p.DecayStatus = d.DecayStatus
		p.LastDecayDate = &today
		if d.Died {
			p.IsActive = false
		}
		if err := s.plants.Save(tx, p, expected); err != nil {
			return err
		}

		*res = PlantDecayOutcome{
			PlantID:     plantID,
			Changed:     true,
			Died:        d.Died,
			DaysCharged: d.DaysCharged,
			XPLost:      d.XPLost,
			From:        res.From,
			To:          d.DecayStatus,
		}
		now := s.rt.Clock.Now()
		if d.Died {
			out.emit(plantEvent(realtime.EventPlantDied, p, now, map[string]any{"days_without_care": p.DaysWithoutCare}))
			out.then(func() { s.rt.Metrics.PlantTransition(string(garden.DecayDead)) })
		} else if d.DecayStatus.Severity() > res.From.Severity() {
			out.emit(plantEvent(realtime.EventPlantDecayed, p, now, map[string]any{
				"from": string(res.From), "to": string(d.DecayStatus), "xp_lost": d.XPLost,
			}))
			out.then(func() { s.rt.Metrics.PlantTransition(string(d.DecayStatus)) })
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *decayService) DecayUserPlants(dbc dbctx.Context, userID uuid.UUID) (*UserDecaySummary, error) {
	_, today := s.rt.now()
	sum := &UserDecaySummary{UserID: userID, Plants: []PlantDecayOutcome{}}
	plants, err := s.plants.ListDecayCandidates(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list decay candidates: %w", err)
	}
	for _, p := range plants {
		if p.LastWorkedDate != nil && !p.LastWorkedDate.Before(today) {
			continue
		}
		out, err := s.DecayPlant(dbc, userID, p.ID, today)
		if err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("plant %s: %v", p.ID, err))
			s.log.Warn("plant decay failed", "plant_id", p.ID, "user_id", userID, "error", err)
			continue
		}
		sum.Plants = append(sum.Plants, *out)
		if out.Changed {
			sum.Changed++
		}
		if out.Died {
			sum.Died++
		}
	}

	ud, err := s.progress.ApplyDailyDecay(dbc, userID)
	if err != nil {
		sum.Failed++
		sum.Errors = append(sum.Errors, fmt.Sprintf("user progress: %v", err))
		s.log.Warn("user decay failed", "user_id", userID, "error", err)
	} else {
		sum.User = ud
	}
	return sum, nil
}
