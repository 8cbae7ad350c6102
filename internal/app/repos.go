package app

import (
	"gorm.io/gorm"

	gardenrepo "github.com/savioxavier/swe-group-7/internal/data/repos/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

type Repos struct {
	Plants   gardenrepo.PlantRepo
	Progress gardenrepo.UserProgressRepo
	TimeLogs gardenrepo.TimeLogRepo
	CareLogs gardenrepo.CareLogRepo
	Runs     gardenrepo.SweepRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) (Repos, error) {
	log.Info("Wiring repos...")
	var (
		r   Repos
		err error
	)
	if r.Plants, err = gardenrepo.NewPlantRepo(db, log); err != nil {
		return Repos{}, err
	}
	if r.Progress, err = gardenrepo.NewUserProgressRepo(db, log); err != nil {
		return Repos{}, err
	}
	if r.TimeLogs, err = gardenrepo.NewTimeLogRepo(db, log); err != nil {
		return Repos{}, err
	}
	if r.CareLogs, err = gardenrepo.NewCareLogRepo(db, log); err != nil {
		return Repos{}, err
	}
	if r.Runs, err = gardenrepo.NewSweepRunRepo(db, log); err != nil {
		return Repos{}, err
	}
	return r, nil
}
