package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	gardenrepo "github.com/savioxavier/swe-group-7/internal/data/repos/garden"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/observability"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

const maxRecordedErrors = 100

type SweepReport struct {
	RunID     uuid.UUID        `json:"run_id"`
	Kind      garden.SweepKind `json:"kind"`
	Day       time.Time        `json:"day"`
	Forced    bool             `json:"forced"`
	Processed int              `json:"processed"`
	Changed   int              `json:"changed"`
	Failed    int              `json:"failed"`
	Errors    []string         `json:"errors,omitempty"`
	Duration  time.Duration    `json:"duration"`
}

func (r *SweepReport) fail(msg string) {
	r.Failed++
	if len(r.Errors) < maxRecordedErrors {
		r.Errors = append(r.Errors, msg)
	}
}

// SweepService is the scheduler-facing entrypoint. Both runs are safe with no
// matching rows and never abort on a single bad user or plant.
type SweepService interface {
	RunDecay(ctx context.Context) (*SweepReport, error)
	RunHarvest(ctx context.Context, force bool) (*SweepReport, error)
}

type sweepService struct {
	rt       *Runtime
	log      *logger.Logger
	plants   gardenrepo.PlantRepo
	progress gardenrepo.UserProgressRepo
	runs     gardenrepo.SweepRunRepo
	decay    DecayService
	harvest  HarvestService
	perSec   float64
}

func NewSweepService(
	rt *Runtime,
	baseLog *logger.Logger,
	plants gardenrepo.PlantRepo,
	progress gardenrepo.UserProgressRepo,
	runs gardenrepo.SweepRunRepo,
	decay DecayService,
	harvest HarvestService,
	usersPerSecond float64,
) SweepService {
	return &sweepService{
		rt:       rt,
		log:      baseLog.With("service", "SweepService"),
		plants:   plants,
		progress: progress,
		runs:     runs,
		decay:    decay,
		harvest:  harvest,
		perSec:   usersPerSecond,
	}
}

func (s *sweepService) RunDecay(ctx context.Context) (*SweepReport, error) {
	ctx, span := observability.Tracer().Start(ctx, "garden.sweep.decay")
	defer span.End()

	started, today := s.rt.now()
	dbc := dbctx.New(ctx)
	report := &SweepReport{Kind: garden.SweepDecay, Day: today}
	run, err := s.runs.Start(dbc, garden.SweepDecay, today, false, started)
	if err != nil {
		return nil, fmt.Errorf("start sweep run: %w", err)
	}
	report.RunID = run.ID

	users, err := s.userIDs(dbc)
	if err != nil {
		s.finish(dbc, run, report, started, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	span.SetAttributes(attribute.Int("garden.users", len(users)))

	limiter := s.limiter()
	var runErr error
	for _, userID := range users {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				runErr = err
				break
			}
		} else if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		s.decayUser(dbc, report, userID)
	}

	s.finish(dbc, run, report, started, runErr)
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	}
	return report, runErr
}

func (s *sweepService) decayUser(dbc dbctx.Context, report *SweepReport, userID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			report.fail(fmt.Sprintf("user %s: panic: %v", userID, r))
			s.rt.Metrics.SweepItem(string(garden.SweepDecay), "failed")
			s.log.Error("decay sweep panic", "user_id", userID, "panic", r)
		}
	}()
	report.Processed++
	sum, err := s.decay.DecayUserPlants(dbc, userID)
	if err != nil {
		report.fail(fmt.Sprintf("user %s: %v", userID, err))
		s.rt.Metrics.SweepItem(string(garden.SweepDecay), "failed")
		s.log.Warn("decay sweep item failed", "user_id", userID, "error", err)
		return
	}
	for _, msg := range sum.Errors {
		report.fail(fmt.Sprintf("user %s: %s", userID, msg))
	}
	changed := sum.Changed
	if sum.User != nil && sum.User.Applied {
		changed++
	}
	report.Changed += changed
	result := "unchanged"
	switch {
	case sum.Failed > 0:
		result = "failed"
	case changed > 0:
		result = "changed"
	}
	s.rt.Metrics.SweepItem(string(garden.SweepDecay), result)
}

func (s *sweepService) RunHarvest(ctx context.Context, force bool) (*SweepReport, error) {
	ctx, span := observability.Tracer().Start(ctx, "garden.sweep.harvest")
	defer span.End()
	span.SetAttributes(attribute.Bool("garden.forced", force))

	started, today := s.rt.now()
	dbc := dbctx.New(ctx)
	report := &SweepReport{Kind: garden.SweepHarvest, Day: today, Forced: force}
	run, err := s.runs.Start(dbc, garden.SweepHarvest, today, force, started)
	if err != nil {
		return nil, fmt.Errorf("start sweep run: %w", err)
	}
	report.RunID = run.ID

	sum, err := s.harvest.AutoHarvest(dbc, started, force, nil)
	if err != nil {
		s.finish(dbc, run, report, started, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	report.Processed = sum.Examined
	report.Changed = len(sum.Harvested)
	for _, msg := range sum.Errors {
		report.fail(msg)
	}
	for range sum.Harvested {
		s.rt.Metrics.SweepItem(string(garden.SweepHarvest), "changed")
	}
	for i := 0; i < sum.Failed; i++ {
		s.rt.Metrics.SweepItem(string(garden.SweepHarvest), "failed")
	}
	s.finish(dbc, run, report, started, nil)
	return report, nil
}

// userIDs is everyone with progress or an active plant.
func (s *sweepService) userIDs(dbc dbctx.Context) ([]uuid.UUID, error) {
	fromProgress, err := s.progress.ListUserIDs(dbc)
	if err != nil {
		return nil, fmt.Errorf("list progress users: %w", err)
	}
	fromPlants, err := s.plants.ListOwnerIDs(dbc)
	if err != nil {
		return nil, fmt.Errorf("list plant owners: %w", err)
	}
	seen := make(map[uuid.UUID]struct{}, len(fromProgress)+len(fromPlants))
	out := make([]uuid.UUID, 0, len(fromProgress)+len(fromPlants))
	for _, id := range append(fromProgress, fromPlants...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (s *sweepService) limiter() *rate.Limiter {
	if s.perSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(s.perSec), 1)
}

func (s *sweepService) finish(dbc dbctx.Context, run *garden.SweepRun, report *SweepReport, started time.Time, runErr error) {
	finished := s.rt.Clock.Now()
	report.Duration = finished.Sub(started)
	if runErr != nil {
		report.fail(runErr.Error())
	}
	run.FinishedAt = &finished
	run.Processed = report.Processed
	run.Changed = report.Changed
	run.Failed = report.Failed
	run.Errors = report.Errors

	// The run's own context may be cancelled; the audit row still gets written.
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(dbc.Ctx), 10*time.Second)
	defer cancel()
	if err := s.runs.Finish(dbctx.New(auditCtx), run); err != nil {
		s.log.Warn("could not finish sweep run", "run_id", run.ID, "error", err)
	}

	outcome := "ok"
	switch {
	case runErr != nil:
		outcome = "aborted"
	case report.Failed > 0:
		outcome = "partial"
	}
	s.rt.Metrics.SweepFinished(string(report.Kind), outcome, report.Duration)
	s.log.Info("sweep finished",
		"kind", report.Kind,
		"day", report.Day.Format("2006-01-02"),
		"forced", report.Forced,
		"processed", report.Processed,
		"changed", report.Changed,
		"failed", report.Failed,
		"outcome", outcome,
		"duration", report.Duration,
	)
}
