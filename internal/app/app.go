package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	temporalsdkclient "go.temporal.io/sdk/client"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/savioxavier/swe-group-7/internal/data/db"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	httpx "github.com/savioxavier/swe-group-7/internal/http"
	"github.com/savioxavier/swe-group-7/internal/observability"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
	"github.com/savioxavier/swe-group-7/internal/platform/redislock"
	"github.com/savioxavier/swe-group-7/internal/realtime"
	"github.com/savioxavier/swe-group-7/internal/scheduler"
	"github.com/savioxavier/swe-group-7/internal/services"
	"github.com/savioxavier/swe-group-7/internal/temporalx"
	"github.com/savioxavier/swe-group-7/internal/temporalx/temporalworker"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Repos    Repos
	Services Services
	Runtime  *services.Runtime
	Server   *httpx.Server

	dbService    *db.Service
	redis        *goredis.Client
	notifier     realtime.Notifier
	temporal     temporalsdkclient.Client
	otelShutdown func(context.Context) error
}

// Bootstrap builds the logger and reads the environment.
func Bootstrap() (*logger.Logger, Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, Config{}, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, Config{}, fmt.Errorf("init logger: %w", err)
	}
	return log, cfg, nil
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)

	clk := clock.Real{}
	cal, err := clock.NewCalendar(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("GARDEN_TIMEZONE: %w", err)
	}
	balance, err := garden.LoadBalance(cfg.BalanceFile)
	if err != nil {
		return nil, err
	}

	if a.dbService, err = db.NewService(cfg.DB, log); err != nil {
		return nil, err
	}
	a.DB = a.dbService.DB()
	if err := db.Migrate(ctx, a.DB, clk, log); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if a.redis, err = newRedis(ctx, cfg, log); err != nil {
		a.Close()
		return nil, err
	}
	a.notifier = newNotifier(a.redis, cfg, log)

	metrics := observability.DefaultMetrics()
	a.Runtime = services.NewRuntime(a.DB, clk, cal, balance, metrics, a.notifier)

	if a.Repos, err = wireRepos(a.DB, log); err != nil {
		a.Close()
		return nil, err
	}
	a.Services = wireServices(a.Runtime, log, a.Repos, cfg.Scheduler.RatePerSecond)

	ids, err := newIdentity(cfg.Identity, clk, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Server = wireServer(cfg, log, a.DB, clk, metrics, ids, a.Services)
	return a, nil
}

// Serve runs the HTTP server plus either the Temporal worker or the
// in-process scheduler until ctx is cancelled or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	sweeps, err := a.sweepRunner()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "port", a.Cfg.Port)
		return a.Server.Run(ctx)
	})
	if sweeps != nil {
		g.Go(func() error { return sweeps(ctx) })
	}
	return g.Wait()
}

func (a *App) sweepRunner() (func(context.Context) error, error) {
	switch {
	case a.Cfg.Temporal.Enabled():
		tc, err := temporalx.NewClient(a.Cfg.Temporal, a.Log)
		if err != nil {
			return nil, err
		}
		a.temporal = tc
		runner, err := temporalworker.NewRunner(a.Log, tc, a.Cfg.Temporal, a.Services.Sweeps)
		if err != nil {
			return nil, err
		}
		return runner.Run, nil
	case a.Cfg.Scheduler.Enabled:
		sched, err := a.newScheduler()
		if err != nil {
			return nil, err
		}
		return sched.Run, nil
	default:
		a.Log.Warn("no sweep scheduler running; use the sweep command or set SCHEDULER_ENABLED")
		return nil, nil
	}
}

func (a *App) newScheduler() (*scheduler.Daily, error) {
	var opts []scheduler.Option
	if a.redis != nil {
		opts = append(opts, scheduler.WithRedisLock(redislock.New(a.redis, ""), a.Cfg.Scheduler.LockTTL))
	}
	sched := scheduler.New(a.Log, a.Runtime.Clock, a.Runtime.Calendar, opts...)
	err := errors.Join(
		sched.Add("decay", a.Cfg.Scheduler.DecayAt, func(ctx context.Context) error {
			_, err := a.Services.Sweeps.RunDecay(ctx)
			return err
		}),
		sched.Add("harvest", a.Cfg.Scheduler.HarvestAt, func(ctx context.Context) error {
			_, err := a.Services.Sweeps.RunHarvest(ctx, false)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// Migrate opens the database, applies migrations and closes it again.
func Migrate(ctx context.Context, log *logger.Logger, cfg Config) error {
	svc, err := db.NewService(cfg.DB, log)
	if err != nil {
		return err
	}
	defer svc.Close()
	return db.Migrate(ctx, svc.DB(), clock.Real{}, log)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.temporal != nil {
		a.temporal.Close()
	}
	if a.notifier != nil {
		_ = a.notifier.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("closing database", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.otelShutdown(ctx)
	}
	a.Log.Sync()
}
