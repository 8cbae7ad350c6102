package services

import (
	"time"

	"github.com/google/uuid"

	gardenrepo "github.com/savioxavier/swe-group-7/internal/data/repos/garden"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/progression"
	"github.com/savioxavier/swe-group-7/internal/realtime"
)

type StepResult struct {
	Plant         *garden.Plant        `json:"plant"`
	Step          *garden.TaskStep     `json:"step"`
	Progress      *garden.UserProgress `json:"progress,omitempty"`
	XPGained      int                  `json:"xp_gained"`
	TaskCompleted bool                 `json:"task_completed"`
}

type StepService interface {
	// ConvertToMultiStep is one-way; the plant restarts at zero milestones.
	ConvertToMultiStep(dbc dbctx.Context, userID, plantID uuid.UUID, steps []StepInput) (*garden.Plant, error)
	AddStep(dbc dbctx.Context, userID, plantID uuid.UUID, step StepInput) (*garden.Plant, error)
	// CompleteStep finishes a step; completing the last one completes the task.
	CompleteStep(dbc dbctx.Context, userID, plantID, stepID uuid.UUID, hours float64) (*StepResult, error)
	// SetPartial flags a step as in progress and optionally books hours on it.
	SetPartial(dbc dbctx.Context, userID, plantID, stepID uuid.UUID, partial bool, hours float64) (*StepResult, error)
}

type stepService struct {
	rt     *Runtime
	log    *logger.Logger
	plants gardenrepo.PlantRepo
	logs   gardenrepo.TimeLogRepo
	ledger *ledger
}

func NewStepService(
	rt *Runtime,
	baseLog *logger.Logger,
	plants gardenrepo.PlantRepo,
	progress gardenrepo.UserProgressRepo,
	logs gardenrepo.TimeLogRepo,
) StepService {
	return &stepService{
		rt:     rt,
		log:    baseLog.With("service", "StepService"),
		plants: plants,
		logs:   logs,
		ledger: &ledger{rt: rt, repo: progress},
	}
}

func (s *stepService) ConvertToMultiStep(dbc dbctx.Context, userID, plantID uuid.UUID, in []StepInput) (*garden.Plant, error) {
	if len(in) == 0 {
		return nil, apierr.Validation("missing_steps", "at least one step is required")
	}
	steps, err := newSteps(in)
	if err != nil {
		return nil, err
	}
	var plant *garden.Plant
	err = s.rt.mutate(dbc, "plant.convert", []string{plantKey(plantID)}, func(tx dbctx.Context, _ *outbox) error {
		p, err := loadWorkable(tx, s.plants, userID, plantID)
		if err != nil {
			return err
		}
		if p.IsMultiStep {
			return apierr.InvalidState("already_multi_step", "plant %s is already multi-step", plantID)
		}
		expected := p.Version
		p.IsMultiStep = true
		p.TaskSteps = steps
		p.RecountSteps()
		p.GrowthLevel = progression.MilestoneGrowth(p.CompletedSteps)
		if err := s.plants.Save(tx, p, expected); err != nil {
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

func (s *stepService) AddStep(dbc dbctx.Context, userID, plantID uuid.UUID, in StepInput) (*garden.Plant, error) {
	step, err := newStep(in)
	if err != nil {
		return nil, err
	}
	var plant *garden.Plant
	err = s.rt.mutate(dbc, "plant.add_step", []string{plantKey(plantID)}, func(tx dbctx.Context, _ *outbox) error {
		p, err := loadWorkable(tx, s.plants, userID, plantID)
		if err != nil {
			return err
		}
		if !p.IsMultiStep {
			return apierr.InvalidState("not_multi_step", "plant %s is not multi-step", plantID)
		}
		expected := p.Version
		p.TaskSteps = append(p.TaskSteps, step)
		p.RecountSteps()
		if err := s.plants.Save(tx, p, expected); err != nil {
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

func (s *stepService) CompleteStep(dbc dbctx.Context, userID, plantID, stepID uuid.UUID, hours float64) (*StepResult, error) {
	if err := validateHours(hours, true, s.rt.Balance.MaxHoursPerLog); err != nil {
		return nil, err
	}
	res := &StepResult{}
	err := s.rt.mutate(dbc, "plant.complete_step", []string{plantKey(plantID), progressKey(userID)}, func(tx dbctx.Context, out *outbox) error {
		now, today := s.rt.now()
		p, idx, err := s.loadStep(tx, userID, plantID, stepID)
		if err != nil {
			return err
		}
		step := &p.TaskSteps[idx]
		if step.IsCompleted {
			return apierr.InvalidState("step_already_completed", "step %s is already completed", stepID)
		}
		expected := p.Version
		step.WorkHours += hours
		step.IsCompleted = true
		step.IsPartial = false
		step.CompletedAt = &now
		p.RecountSteps()
		markWorked(p, today)
		p.GrowthLevel = progression.MilestoneGrowth(p.CompletedSteps)

		final := p.CompletedSteps == p.TotalSteps
		if final {
			completeTask(p, now)
		}
		if err := s.plants.Save(tx, p, expected); err != nil {
			return err
		}
		if err := s.logHours(tx, p, stepID, hours, today, now); err != nil {
			return err
		}
		xp := progression.StepBonusXP(final, hours, s.rt.Balance.StepXP)
		kind := garden.ActivityStep
		if final {
			kind = garden.ActivityCompletion
			out.emit(plantEvent(realtime.EventPlantCompleted, p, now, map[string]any{"via": "steps"}))
			out.then(func() { s.rt.Metrics.PlantTransition(string(garden.TaskStatusCompleted)) })
		}
		prog, err := s.ledger.award(tx, out, userID, xp, kind, now)
		if err != nil {
			return err
		}
		stepCopy := p.TaskSteps[idx]
		*res = StepResult{Plant: p, Step: &stepCopy, Progress: prog, XPGained: xp, TaskCompleted: final}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SetPartial never changes growth or task status. Hours, when given, earn
// user XP like a work log and count as a work event for the plant.
func (s *stepService) SetPartial(dbc dbctx.Context, userID, plantID, stepID uuid.UUID, partial bool, hours float64) (*StepResult, error) {
	if err := validateHours(hours, true, s.rt.Balance.MaxHoursPerLog); err != nil {
		return nil, err
	}
	res := &StepResult{}
	err := s.rt.mutate(dbc, "plant.partial_step", []string{plantKey(plantID), progressKey(userID)}, func(tx dbctx.Context, out *outbox) error {
		now, today := s.rt.now()
		p, idx, err := s.loadStep(tx, userID, plantID, stepID)
		if err != nil {
			return err
		}
		step := &p.TaskSteps[idx]
		if step.IsCompleted {
			return apierr.InvalidState("step_already_completed", "step %s is already completed", stepID)
		}
		expected := p.Version
		step.IsPartial = partial
		step.WorkHours += hours
		if hours > 0 {
			markWorked(p, today)
		}
		if err := s.plants.Save(tx, p, expected); err != nil {
			return err
		}
		stepCopy := p.TaskSteps[idx]
		*res = StepResult{Plant: p, Step: &stepCopy}
		if hours == 0 {
			return nil
		}
		if err := s.logHours(tx, p, stepID, hours, today, now); err != nil {
			return err
		}
		xp := progression.HoursToXP(hours)
		prog, err := s.ledger.award(tx, out, userID, xp, garden.ActivityWork, now)
		if err != nil {
			return err
		}
		res.Progress = prog
		res.XPGained = xp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *stepService) loadStep(tx dbctx.Context, userID, plantID, stepID uuid.UUID) (*garden.Plant, int, error) {
	p, err := loadWorkable(tx, s.plants, userID, plantID)
	if err != nil {
		return nil, -1, err
	}
	if !p.IsMultiStep {
		return nil, -1, apierr.InvalidState("not_multi_step", "plant %s is not multi-step", plantID)
	}
	idx := p.StepIndex(stepID)
	if idx < 0 {
		return nil, -1, apierr.NotFound("step_not_found", "step %s not found", stepID)
	}
	return p, idx, nil
}

func (s *stepService) logHours(tx dbctx.Context, p *garden.Plant, stepID uuid.UUID, hours float64, day, now time.Time) error {
	if hours <= 0 {
		return nil
	}
	sid := stepID
	return s.logs.Create(tx, &garden.TaskTimeLog{
		PlantID:          p.ID,
		UserID:           p.UserID,
		StepID:           &sid,
		Hours:            hours,
		ExperienceGained: progression.HoursToXP(hours),
		WorkDate:         day,
		CreatedAt:        now,
	})
}
