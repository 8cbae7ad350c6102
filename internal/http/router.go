package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/savioxavier/swe-group-7/internal/http/handlers"
	httpMW "github.com/savioxavier/swe-group-7/internal/http/middleware"
	"github.com/savioxavier/swe-group-7/internal/observability"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	ProgressHandler *httpH.ProgressHandler
	PlantHandler    *httpH.PlantHandler
	WorkHandler     *httpH.WorkHandler
	StepHandler     *httpH.StepHandler
	HarvestHandler  *httpH.HarvestHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil && cfg.Metrics.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	protected := r.Group("/api")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.GET("/progress", cfg.ProgressHandler.GetProgress)
		}

		// Plants
		if cfg.PlantHandler != nil {
			protected.GET("/plants", cfg.PlantHandler.ListPlants)
			protected.POST("/plants", cfg.PlantHandler.CreatePlant)
			protected.GET("/plants/:id", cfg.PlantHandler.GetPlant)
			protected.PATCH("/plants/:id", cfg.PlantHandler.UpdatePlant)
			protected.DELETE("/plants/:id", cfg.PlantHandler.DeletePlant)
			protected.POST("/plants/:id/care", cfg.PlantHandler.CarePlant)
		}

		// Work
		if cfg.WorkHandler != nil {
			protected.POST("/plants/:id/work", cfg.WorkHandler.LogWork)
			protected.GET("/plants/:id/work", cfg.WorkHandler.ListWork)
		}

		// Steps
		if cfg.StepHandler != nil {
			protected.POST("/plants/:id/convert-to-multi-step", cfg.StepHandler.ConvertToMultiStep)
			protected.POST("/plants/:id/steps", cfg.StepHandler.AddStep)
			protected.POST("/plants/:id/steps/:stepID/complete", cfg.StepHandler.CompleteStep)
			protected.POST("/plants/:id/steps/:stepID/partial", cfg.StepHandler.SetPartial)
		}

		// Completion + harvest
		if cfg.HarvestHandler != nil {
			protected.POST("/plants/:id/complete", cfg.HarvestHandler.CompleteTask)
			protected.POST("/plants/:id/harvest", cfg.HarvestHandler.HarvestPlant)
			protected.POST("/plants/auto-harvest", cfg.HarvestHandler.AutoHarvest)
		}
	}

	return r
}
