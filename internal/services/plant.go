package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	gardenrepo "github.com/savioxavier/swe-group-7/internal/data/repos/garden"
	"github.com/savioxavier/swe-group-7/internal/datastore"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/progression"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 2000
	maxStepTitleLen   = 200
)

type StepInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CreatePlantInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	PlantSprite string      `json:"plant_sprite"`
	PositionX   int         `json:"position_x"`
	PositionY   int         `json:"position_y"`
	Steps       []StepInput `json:"task_steps"`
}

type UpdatePlantInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	PlantSprite *string `json:"plant_sprite"`
	PositionX   *int    `json:"position_x"`
	PositionY   *int    `json:"position_y"`
}

type CareResult struct {
	Plant    *garden.Plant        `json:"plant"`
	Progress *garden.UserProgress `json:"progress"`
	Log      *garden.PlantCareLog `json:"care_log"`
}

type PlantService interface {
	Create(dbc dbctx.Context, userID uuid.UUID, in CreatePlantInput) (*garden.Plant, error)
	Get(dbc dbctx.Context, userID, plantID uuid.UUID) (*garden.Plant, error)
	List(dbc dbctx.Context, userID uuid.UUID, includeInactive bool) ([]garden.Plant, error)
	Update(dbc dbctx.Context, userID, plantID uuid.UUID, in UpdatePlantInput) (*garden.Plant, error)
	// Delete is a soft delete; the cell becomes free again.
	Delete(dbc dbctx.Context, userID, plantID uuid.UUID) error
	Care(dbc dbctx.Context, userID, plantID uuid.UUID, careType garden.CareType) (*CareResult, error)
}

type plantService struct {
	rt     *Runtime
	log    *logger.Logger
	plants gardenrepo.PlantRepo
	care   gardenrepo.CareLogRepo
	ledger *ledger
}

func NewPlantService(
	rt *Runtime,
	baseLog *logger.Logger,
	plants gardenrepo.PlantRepo,
	progress gardenrepo.UserProgressRepo,
	care gardenrepo.CareLogRepo,
) PlantService {
	return &plantService{
		rt:     rt,
		log:    baseLog.With("service", "PlantService"),
		plants: plants,
		care:   care,
		ledger: &ledger{rt: rt, repo: progress},
	}
}

func (s *plantService) Create(dbc dbctx.Context, userID uuid.UUID, in CreatePlantInput) (*garden.Plant, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := checkDescription(in.Description); err != nil {
		return nil, err
	}
	category := garden.CategoryWork
	if strings.TrimSpace(in.Category) != "" {
		c, ok := garden.ParseCategory(in.Category)
		if !ok {
			return nil, apierr.Validation("invalid_category", "unknown category %q", in.Category)
		}
		category = c
	}
	if !s.rt.Balance.InGrid(in.PositionX, in.PositionY) {
		return nil, apierr.Validation("invalid_position", "position (%d,%d) is outside the %dx%d garden",
			in.PositionX, in.PositionY, s.rt.Balance.GridWidth, s.rt.Balance.GridHeight)
	}
	steps, err := newSteps(in.Steps)
	if err != nil {
		return nil, err
	}

	var plant *garden.Plant
	err = s.rt.mutate(dbc, "plant.create", []string{cellKey(userID, in.PositionX, in.PositionY)}, func(tx dbctx.Context, out *outbox) error {
		taken, err := s.plants.CellOccupied(tx, userID, in.PositionX, in.PositionY, nil)
		if err != nil {
			return err
		}
		if taken {
			return apierr.Conflict("position_occupied", "Position already occupied")
		}
		now, _ := s.rt.now()
		p := &garden.Plant{
			UserID:      userID,
			Name:        name,
			Description: strings.TrimSpace(in.Description),
			Category:    category,
			PlantSprite: strings.TrimSpace(in.PlantSprite),
			TaskStatus:  garden.TaskStatusActive,
			PositionX:   in.PositionX,
			PositionY:   in.PositionY,
			TaskLevel:   1,
			DecayStatus: garden.DecayHealthy,
			IsMultiStep: len(steps) > 0,
			TaskSteps:   steps,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		p.RecountSteps()
		if p.IsMultiStep {
			p.GrowthLevel = progression.MilestoneGrowth(p.CompletedSteps)
		} else {
			p.TaskLevel, p.GrowthLevel = progression.SingleStepGrowth(p.ExperiencePoints)
		}
		if err := s.plants.Create(tx, p); err != nil {
			return err
		}
		plant = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("plant created", "plant_id", plant.ID, "user_id", userID, "x", plant.PositionX, "y", plant.PositionY)
	return plant, nil
}

func (s *plantService) Get(dbc dbctx.Context, userID, plantID uuid.UUID) (*garden.Plant, error) {
	return s.plants.GetByID(dbc, datastore.Owner(userID), plantID)
}

func (s *plantService) List(dbc dbctx.Context, userID uuid.UUID, includeInactive bool) ([]garden.Plant, error) {
	return s.plants.ListByUser(dbc, userID, includeInactive)
}

func (s *plantService) Update(dbc dbctx.Context, userID, plantID uuid.UUID, in UpdatePlantInput) (*garden.Plant, error) {
	keys := []string{plantKey(plantID)}
	if in.PositionX != nil || in.PositionY != nil {
		if in.PositionX == nil || in.PositionY == nil {
			return nil, apierr.Validation("invalid_position", "position_x and position_y must be moved together")
		}
		if !s.rt.Balance.InGrid(*in.PositionX, *in.PositionY) {
			return nil, apierr.Validation("invalid_position", "position (%d,%d) is outside the garden", *in.PositionX, *in.PositionY)
		}
		keys = append(keys, cellKey(userID, *in.PositionX, *in.PositionY))
	}

	var plant *garden.Plant
	err := s.rt.mutate(dbc, "plant.update", keys, func(tx dbctx.Context, _ *outbox) error {
		p, err := s.plants.GetByID(tx, datastore.Owner(userID), plantID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return apierr.InvalidState("plant_inactive", "plant %s is no longer in the garden", plantID)
		}
		expected := p.Version
		if in.Name != nil {
			if p.Name, err = cleanName(*in.Name); err != nil {
				return err
			}
		}
		if in.Description != nil {
			if err := checkDescription(*in.Description); err != nil {
				return err
			}
			p.Description = strings.TrimSpace(*in.Description)
		}
		if in.Category != nil {
			c, ok := garden.ParseCategory(*in.Category)
			if !ok {
				return apierr.Validation("invalid_category", "unknown category %q", *in.Category)
			}
			p.Category = c
		}
		if in.PlantSprite != nil {
			p.PlantSprite = strings.TrimSpace(*in.PlantSprite)
		}
		if in.PositionX != nil && (*in.PositionX != p.PositionX || *in.PositionY != p.PositionY) {
			taken, err := s.plants.CellOccupied(tx, userID, *in.PositionX, *in.PositionY, &p.ID)
			if err != nil {
				return err
			}
			if taken {
				return apierr.Conflict("position_occupied", "Position already occupied")
			}
			p.PositionX, p.PositionY = *in.PositionX, *in.PositionY
		}
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

func (s *plantService) Delete(dbc dbctx.Context, userID, plantID uuid.UUID) error {
	return s.rt.mutate(dbc, "plant.delete", []string{plantKey(plantID)}, func(tx dbctx.Context, _ *outbox) error {
		p, err := s.plants.GetByID(tx, datastore.Owner(userID), plantID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return nil
		}
		expected := p.Version
		p.IsActive = false
		return s.plants.Save(tx, p, expected)
	})
}

// Care grants care XP to the plant and the user and counts as a work event.
// Multi-step plants keep their XP and growth; only the user earns.
func (s *plantService) Care(dbc dbctx.Context, userID, plantID uuid.UUID, careType garden.CareType) (*CareResult, error) {
	xp, ok := s.rt.Balance.CareXP.For(careType)
	if !ok {
		return nil, apierr.Validation("invalid_care_type", "unknown care type %q", careType)
	}
	res := &CareResult{}
	err := s.rt.mutate(dbc, "plant.care", []string{plantKey(plantID), progressKey(userID)}, func(tx dbctx.Context, out *outbox) error {
		now, today := s.rt.now()
		p, err := s.plants.GetByID(tx, datastore.Owner(userID), plantID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return apierr.InvalidState("plant_inactive", "plant %s is no longer in the garden", plantID)
		}
		expected := p.Version
		if !p.IsMultiStep {
			p.ExperiencePoints += xp
			p.TaskLevel, p.GrowthLevel = progression.SingleStepGrowth(p.ExperiencePoints)
		}
		markWorked(p, today)
		if err := s.plants.Save(tx, p, expected); err != nil {
			return err
		}
		entry := &garden.PlantCareLog{PlantID: p.ID, UserID: userID, CareType: careType, ExperienceGained: xp, CreatedAt: now}
		if err := s.care.Create(tx, entry); err != nil {
			return err
		}
		prog, err := s.ledger.award(tx, out, userID, xp, garden.ActivityCare, now)
		if err != nil {
			return err
		}
		*res = CareResult{Plant: p, Progress: prog, Log: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// markWorked applies the side effects every work event has on a plant.
func markWorked(p *garden.Plant, today time.Time) {
	p.CurrentStreak = progression.NextPlantStreak(p.CurrentStreak, p.LastWorkedDate, today)
	p.LastWorkedDate = &today
	p.DaysWithoutCare = 0
	p.DecayStatus = garden.DecayHealthy
	// Clearing the status lifts the wilt penalty; milestones are untouched.
	if p.IsMultiStep {
		p.GrowthLevel = progression.MilestoneGrowth(p.CompletedSteps)
	}
}

func cleanName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return "", apierr.Validation("invalid_name", "name must be 1-%d characters", maxNameLen)
	}
	return name, nil
}

func checkDescription(raw string) error {
	if utf8.RuneCountInString(strings.TrimSpace(raw)) > maxDescriptionLen {
		return apierr.Validation("invalid_description", "description must be at most %d characters", maxDescriptionLen)
	}
	return nil
}

// newSteps validates step input and assigns fresh ids.
func newSteps(in []StepInput) ([]garden.TaskStep, error) {
	steps := make([]garden.TaskStep, 0, len(in))
	for i, s := range in {
		step, err := newStep(s)
		if err != nil {
			return nil, apierr.Validation("invalid_step", "step %d: %v", i+1, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func newStep(in StepInput) (garden.TaskStep, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > maxStepTitleLen {
		return garden.TaskStep{}, apierr.Validation("invalid_step", "step title must be 1-%d characters", maxStepTitleLen)
	}
	if err := checkDescription(in.Description); err != nil {
		return garden.TaskStep{}, err
	}
	return garden.TaskStep{ID: uuid.New(), Title: title, Description: strings.TrimSpace(in.Description)}, nil
}
