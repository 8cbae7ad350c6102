package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/savioxavier/swe-group-7/internal/datastore"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/progression"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&garden.Plant{},
		&garden.UserProgress{},
		&garden.TaskTimeLog{},
		&garden.PlantCareLog{},
		&garden.SweepRun{},
		&garden.SchemaMigration{},
	)
}

type migration struct {
	version int
	name    string
	run     func(tx *gorm.DB) error
}

var migrations = []migration{
	{1, "backfill_decay_fields", backfillDecayFields},
	{2, "fold_legacy_category", foldLegacyCategory},
	{3, "recompute_plant_caches", recomputePlantCaches},
}

// Migrate runs AutoMigrate and then every versioned migration not yet recorded
// in schema_migration, each in its own transaction.
func Migrate(ctx context.Context, db *gorm.DB, clk clock.Clock, baseLog *logger.Logger) error {
	log := baseLog.With("component", "Migrate")
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	applied, err := datastore.NewTable[garden.SchemaMigration](db, baseLog, datastore.WithOrder("version ASC"))
	if err != nil {
		return err
	}
	done, err := datastore.Pluck[garden.SchemaMigration, int](dbctx.New(ctx), applied, datastore.Service(), "version")
	if err != nil {
		return fmt.Errorf("read schema_migration: %w", err)
	}
	seen := make(map[int]bool, len(done))
	for _, v := range done {
		seen[v] = true
	}

	ran := 0
	for _, m := range migrations {
		if seen[m.version] {
			continue
		}
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.run(tx); err != nil {
				return err
			}
			row := &garden.SchemaMigration{Version: m.version, Name: m.name, AppliedAt: clk.Now().UTC()}
			return applied.Upsert(dbctx.New(ctx).WithTx(tx), datastore.Service(), row, []string{"version"}, nil)
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		log.Info("migration applied", "version", m.version, "name", m.name)
		ran++
	}
	if ran == 0 {
		return nil
	}
	// SQLite rebuilds the table on DROP COLUMN and loses its indexes,
	// idx_plant_active_cell included.
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("restore indexes: %w", err)
	}
	return nil
}

func backfillDecayFields(tx *gorm.DB) error {
	if err := tx.Model(&garden.Plant{}).
		Where("decay_status IS NULL OR decay_status = ''").
		Update("decay_status", garden.DecayHealthy).Error; err != nil {
		return err
	}
	return tx.Model(&garden.Plant{}).
		Where("days_without_care IS NULL").
		Update("days_without_care", 0).Error
}

// foldLegacyCategory moves plant_type / productivity_category into category;
// productivity_category wins when both are set.
func foldLegacyCategory(tx *gorm.DB) error {
	m := tx.Migrator()
	hasType := m.HasColumn(&garden.Plant{}, "plant_type")
	hasProd := m.HasColumn(&garden.Plant{}, "productivity_category")
	if !hasType && !hasProd {
		return nil
	}
	for _, col := range []string{"plant_type", "productivity_category"} {
		if col == "plant_type" && !hasType || col == "productivity_category" && !hasProd {
			continue
		}
		type legacyRow struct {
			ID  string
			Raw *string
		}
		var rows []legacyRow
		if err := tx.Table("plant").Select("id, " + col + " AS raw").Where(col + " IS NOT NULL").Scan(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			if r.Raw == nil {
				continue
			}
			cat, ok := garden.ParseCategory(*r.Raw)
			if !ok {
				continue
			}
			if err := tx.Table("plant").Where("id = ?", r.ID).Update("category", cat).Error; err != nil {
				return err
			}
		}
	}
	if hasType {
		if err := m.DropColumn(&garden.Plant{}, "plant_type"); err != nil {
			return err
		}
	}
	if hasProd {
		if err := m.DropColumn(&garden.Plant{}, "productivity_category"); err != nil {
			return err
		}
	}
	return nil
}

func recomputePlantCaches(tx *gorm.DB) error {
	if err := tx.Table("plant").Where("task_steps IS NULL").Update("task_steps", "[]").Error; err != nil {
		return err
	}
	var plants []garden.Plant
	if err := tx.Find(&plants).Error; err != nil {
		return err
	}
	for i := range plants {
		p := &plants[i]
		p.RecountSteps()
		patch := map[string]any{
			"completed_steps": p.CompletedSteps,
			"total_steps":     p.TotalSteps,
		}
		if !p.IsMultiStep {
			patch["task_level"] = progression.TaskLevelFromXP(p.ExperiencePoints)
		} else if p.TaskLevel < 1 {
			patch["task_level"] = 1
		}
		if err := tx.Model(&garden.Plant{}).Where("id = ?", p.ID).UpdateColumns(patch).Error; err != nil {
			return err
		}
	}
	return nil
}
