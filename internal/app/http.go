package app

import (
	"context"

	"gorm.io/gorm"

	httpx "github.com/savioxavier/swe-group-7/internal/http"
	httpH "github.com/savioxavier/swe-group-7/internal/http/handlers"
	httpMW "github.com/savioxavier/swe-group-7/internal/http/middleware"
	"github.com/savioxavier/swe-group-7/internal/identity"
	"github.com/savioxavier/swe-group-7/internal/observability"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

func wireServer(cfg Config, log *logger.Logger, db *gorm.DB, clk clock.Clock, metrics *observability.Metrics, ids identity.Provider, svc Services) *httpx.Server {
	log.Info("Wiring handlers...")
	ping := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpx.NewServer(httpx.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ServiceName:     serviceName,
		CORSOrigins:     cfg.CORSOrigins,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, ids),
		HealthHandler:   httpH.NewHealthHandler(ping),
		ProgressHandler: httpH.NewProgressHandler(svc.Progress),
		PlantHandler:    httpH.NewPlantHandler(svc.Plants),
		WorkHandler:     httpH.NewWorkHandler(svc.Work),
		StepHandler:     httpH.NewStepHandler(svc.Steps),
		HarvestHandler:  httpH.NewHarvestHandler(svc.Harvest, clk),
	}, ":"+cfg.Port)
}
