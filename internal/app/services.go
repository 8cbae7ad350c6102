package app

import (
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/services"
)

type Services struct {
	Progress services.ProgressService
	Plants   services.PlantService
	Work     services.WorkService
	Steps    services.StepService
	Harvest  services.HarvestService
	Decay    services.DecayService
	Sweeps   services.SweepService
}

func wireServices(rt *services.Runtime, log *logger.Logger, repos Repos, sweepRate float64) Services {
	log.Info("Wiring services...")
	progress := services.NewProgressService(rt, log, repos.Progress)
	harvest := services.NewHarvestService(rt, log, repos.Plants, repos.Progress, repos.CareLogs)
	decay := services.NewDecayService(rt, log, repos.Plants, progress)
	return Services{
		Progress: progress,
		Plants:   services.NewPlantService(rt, log, repos.Plants, repos.Progress, repos.CareLogs),
		Work:     services.NewWorkService(rt, log, repos.Plants, repos.Progress, repos.TimeLogs),
		Steps:    services.NewStepService(rt, log, repos.Plants, repos.Progress, repos.TimeLogs),
		Harvest:  harvest,
		Decay:    decay,
		Sweeps:   services.NewSweepService(rt, log, repos.Plants, repos.Progress, repos.Runs, decay, harvest, sweepRate),
	}
}
