package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	gardenrepo "github.com/savioxavier/swe-group-7/internal/data/repos/garden"
	"github.com/savioxavier/swe-group-7/internal/datastore"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/realtime"
)

// completionStage is the lowest growth stage a task may be completed at.
const completionStage = 4

type CompletionResult struct {
	Plant    *garden.Plant        `json:"plant"`
	Progress *garden.UserProgress `json:"progress"`
	XPGained int                  `json:"xp_gained"`
}

type HarvestSummary struct {
	Forced    bool        `json:"forced"`
	Examined  int         `json:"examined"`
	Harvested []uuid.UUID `json:"harvested"`
	NotDue    int         `json:"not_due"`
	Failed    int         `json:"failed"`
	Errors    []string    `json:"errors,omitempty"`
}

type HarvestService interface {
	Complete(dbc dbctx.Context, userID, plantID uuid.UUID) (*CompletionResult, error)
	Harvest(dbc dbctx.Context, userID, plantID uuid.UUID) (*garden.Plant, error)
	// AutoHarvest harvests completed plants whose completion is at least the
	// configured delay old. force ignores the delay. userID nil sweeps everyone.
	AutoHarvest(dbc dbctx.Context, now time.Time, force bool, userID *uuid.UUID) (*HarvestSummary, error)
}

type harvestService struct {
	rt     *Runtime
	log    *logger.Logger
	plants gardenrepo.PlantRepo
	care   gardenrepo.CareLogRepo
	ledger *ledger
}

func NewHarvestService(
	rt *Runtime,
	baseLog *logger.Logger,
	plants gardenrepo.PlantRepo,
	progress gardenrepo.UserProgressRepo,
	care gardenrepo.CareLogRepo,
) HarvestService {
	return &harvestService{
		rt:     rt,
		log:    baseLog.With("service", "HarvestService"),
		plants: plants,
		care:   care,
		ledger: &ledger{rt: rt, repo: progress},
	}
}

func (s *harvestService) Complete(dbc dbctx.Context, userID, plantID uuid.UUID) (*CompletionResult, error) {
	res := &CompletionResult{}
	err := s.rt.mutate(dbc, "plant.complete", []string{plantKey(plantID), progressKey(userID)}, func(tx dbctx.Context, out *outbox) error {
		now, _ := s.rt.now()
		p, err := loadWorkable(tx, s.plants, userID, plantID)
		if err != nil {
			return err
		}
		if stage := p.Stage(); stage < completionStage {
			return apierr.InvalidState("stage_too_low", "plant needs growth stage %d to complete, currently %d", completionStage, stage)
		}
		expected := p.Version
		completeTask(p, now)
		if err := s.plants.Save(tx, p, expected); err != nil {
			return err
		}
		xp := s.rt.Balance.CompletionBonusXP
		entry := &garden.PlantCareLog{PlantID: p.ID, UserID: userID, CareType: garden.CareTaskComplete, ExperienceGained: xp, CreatedAt: now}
		if err := s.care.Create(tx, entry); err != nil {
			return err
		}
		prog, err := s.ledger.award(tx, out, userID, xp, garden.ActivityCompletion, now)
		if err != nil {
			return err
		}
		out.emit(plantEvent(realtime.EventPlantCompleted, p, now, map[string]any{"via": "manual"}))
		out.then(func() { s.rt.Metrics.PlantTransition(string(garden.TaskStatusCompleted)) })
		*res = CompletionResult{Plant: p, Progress: prog, XPGained: xp}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *harvestService) Harvest(dbc dbctx.Context, userID, plantID uuid.UUID) (*garden.Plant, error) {
	var plant *garden.Plant
	err := s.rt.mutate(dbc, "plant.harvest", []string{plantKey(plantID), progressKey(userID)}, func(tx dbctx.Context, out *outbox) error {
		now, _ := s.rt.now()
		p, err := s.plants.GetByID(tx, datastore.Owner(userID), plantID)
		if err != nil {
			return err
		}
		if !p.IsActive || p.TaskStatus != garden.TaskStatusCompleted {
			return apierr.InvalidState("not_completed", "only completed plants can be harvested (status %s)", p.TaskStatus)
		}
		if err := s.harvestLocked(tx, out, p, now, "manual"); err != nil {
			return err
		}
		plant = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plant, nil
}

func (s *harvestService) AutoHarvest(dbc dbctx.Context, now time.Time, force bool, userID *uuid.UUID) (*HarvestSummary, error) {
	sum := &HarvestSummary{Forced: force, Harvested: []uuid.UUID{}}
	completed, err := s.plants.ListCompletedActive(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list completed plants: %w", err)
	}
	for i := range completed {
		s.harvestCandidate(dbc, sum, &completed[i], now, force, false)
	}
	if force && s.rt.Balance.HarvestUntrackedTrophies {
		trophies, err := s.plants.ListTrophyCandidates(dbc, userID)
		if err != nil {
			return nil, fmt.Errorf("list trophy plants: %w", err)
		}
		for i := range trophies {
			s.harvestCandidate(dbc, sum, &trophies[i], now, force, true)
		}
	}
	if sum.Failed > 0 || len(sum.Harvested) > 0 {
		s.log.Info("auto harvest finished", "forced", force, "examined", sum.Examined, "harvested", len(sum.Harvested), "failed", sum.Failed)
	}
	return sum, nil
}

// harvestCandidate re-reads the plant under its lock so a stale list entry is
// never harvested. Failures are recorded on the summary, not returned.
func (s *harvestService) harvestCandidate(dbc dbctx.Context, sum *HarvestSummary, c *garden.Plant, now time.Time, force, trophy bool) {
	sum.Examined++
	harvested := false
	err := s.rt.mutate(dbc, "plant.auto_harvest", []string{plantKey(c.ID), progressKey(c.UserID)}, func(tx dbctx.Context, out *outbox) error {
		harvested = false
		p, err := s.plants.GetByID(tx, datastore.Owner(c.UserID), c.ID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return nil
		}
		via := "auto"
		switch {
		case trophy:
			if p.TaskStatus != garden.TaskStatusActive || p.Stage() < 5 {
				return nil
			}
			completeTask(p, now)
			via = "trophy"
		case p.TaskStatus != garden.TaskStatusCompleted:
			return nil
		case !force && !s.due(p, now):
			return nil
		}
		if err := s.harvestLocked(tx, out, p, now, via); err != nil {
			return err
		}
		harvested = true
		return nil
	})
	switch {
	case err != nil:
		sum.Failed++
		sum.Errors = append(sum.Errors, fmt.Sprintf("plant %s: %v", c.ID, err))
		s.log.Warn("auto harvest failed", "plant_id", c.ID, "user_id", c.UserID, "error", err)
	case harvested:
		sum.Harvested = append(sum.Harvested, c.ID)
	default:
		sum.NotDue++
	}
}

// due reports whether a completed plant has waited out the harvest delay.
// Completed plants without a completion date only go through force mode.
func (s *harvestService) due(p *garden.Plant, now time.Time) bool {
	if p.CompletionDate == nil {
		return false
	}
	return !now.Before(p.CompletionDate.Add(s.rt.Balance.AutoHarvestDelay))
}

func (s *harvestService) harvestLocked(tx dbctx.Context, out *outbox, p *garden.Plant, now time.Time, via string) error {
	expected := p.Version
	p.TaskStatus = garden.TaskStatusHarvested
	p.IsActive = false
	if err := s.plants.Save(tx, p, expected); err != nil {
		return err
	}
	if _, err := s.ledger.award(tx, out, p.UserID, 0, garden.ActivityHarvest, now); err != nil {
		return err
	}
	out.emit(plantEvent(realtime.EventPlantHarvested, p, now, map[string]any{"via": via}))
	out.then(func() { s.rt.Metrics.PlantTransition(string(garden.TaskStatusHarvested)) })
	return nil
}

// completeTask moves an active plant to completed. A just-completed plant is
// forced healthy so the next decay sweep does not wilt it.
func completeTask(p *garden.Plant, now time.Time) {
	p.TaskStatus = garden.TaskStatusCompleted
	p.CompletionDate = &now
	p.DecayStatus = garden.DecayHealthy
	p.DaysWithoutCare = 0
}
