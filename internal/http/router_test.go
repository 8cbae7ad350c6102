package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	gardenrepo "github.com/savioxavier/swe-group-7/internal/data/repos/garden"
	"github.com/savioxavier/swe-group-7/internal/data/repos/testutil"
	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	httpH "github.com/savioxavier/swe-group-7/internal/http/handlers"
	httpMW "github.com/savioxavier/swe-group-7/internal/http/middleware"
	"github.com/savioxavier/swe-group-7/internal/observability"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/realtime"
	"github.com/savioxavier/swe-group-7/internal/services"
)

type tokenMap map[string]uuid.UUID

func (m tokenMap) ResolveToken(_ context.Context, token string) (uuid.UUID, error) {
	if id, ok := m[token]; ok {
		return id, nil
	}
	return uuid.Nil, apierr.Unauthenticated("invalid_token", "unknown token")
}

type apiTest struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPITest(t *testing.T, tokens tokenMap) *apiTest {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clk := clock.NewFake(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	rt := services.NewRuntime(db, clk, clock.Calendar{Loc: time.UTC}, garden.DefaultBalance(), metrics, &realtime.Recorder{})

	plants, err := gardenrepo.NewPlantRepo(db, log)
	require.NoError(t, err)
	progress, err := gardenrepo.NewUserProgressRepo(db, log)
	require.NoError(t, err)
	timeLogs, err := gardenrepo.NewTimeLogRepo(db, log)
	require.NoError(t, err)
	careLogs, err := gardenrepo.NewCareLogRepo(db, log)
	require.NoError(t, err)

	engine := NewRouter(RouterConfig{
		Log:             log,
		Metrics:         metrics,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, tokens),
		HealthHandler:   httpH.NewHealthHandler(nil),
		ProgressHandler: httpH.NewProgressHandler(services.NewProgressService(rt, log, progress)),
		PlantHandler:    httpH.NewPlantHandler(services.NewPlantService(rt, log, plants, progress, careLogs)),
		WorkHandler:     httpH.NewWorkHandler(services.NewWorkService(rt, log, plants, progress, timeLogs)),
		StepHandler:     httpH.NewStepHandler(services.NewStepService(rt, log, plants, progress, timeLogs)),
		HarvestHandler:  httpH.NewHarvestHandler(services.NewHarvestService(rt, log, plants, progress, careLogs), clk),
	})
	return &apiTest{t: t, engine: engine}
}

func (a *apiTest) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

type plantBody struct {
	Plant garden.Plant `json:"plant"`
}

func TestAuthRequired(t *testing.T) {
	api := newAPITest(t, tokenMap{})

	rec := api.do(http.MethodGet, "/api/progress", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_token", decode[errorBody](t, rec).Error.Code)

	rec = api.do(http.MethodGet, "/api/progress", "bogus", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", decode[errorBody](t, rec).Error.Code)
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	api := newAPITest(t, tokenMap{})

	rec := api.do(http.MethodGet, "/healthcheck", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec = api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPlantLifecycleOverHTTP(t *testing.T) {
	user := uuid.New()
	api := newAPITest(t, tokenMap{"alice": user})

	rec := api.do(http.MethodPost, "/api/plants", "alice", map[string]any{
		"name": "Write report", "category": "work", "position_x": 1, "position_y": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[plantBody](t, rec).Plant
	require.Equal(t, user, created.UserID)
	require.Equal(t, garden.TaskStatusActive, created.TaskStatus)

	rec = api.do(http.MethodPost, "/api/plants", "alice", map[string]any{
		"name": "Second", "position_x": 1, "position_y": 2,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "position_occupied", decode[errorBody](t, rec).Error.Code)

	rec = api.do(http.MethodPost, "/api/plants/"+created.ID.String()+"/care", "alice", map[string]any{"care_type": "water"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/progress", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[struct {
		Progress garden.UserProgress `json:"progress"`
	}](t, rec).Progress
	require.Equal(t, 5, progress.TotalExperience)

	rec = api.do(http.MethodPost, "/api/plants/"+created.ID.String()+"/work", "alice", map[string]any{"hours": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	work := decode[services.WorkResult](t, rec)
	require.Positive(t, work.XPGained)

	rec = api.do(http.MethodGet, "/api/plants/"+created.ID.String()+"/work", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[struct {
		TimeLogs []garden.TaskTimeLog `json:"time_logs"`
	}](t, rec).TimeLogs
	require.Len(t, logs, 1)

	rec = api.do(http.MethodGet, "/api/plants", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Plants []garden.Plant `json:"plants"`
	}](t, rec).Plants
	require.Len(t, list, 1)

	rec = api.do(http.MethodDelete, "/api/plants/"+created.ID.String(), "alice", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCompletionGateAndOwnership(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	api := newAPITest(t, tokenMap{"alice": alice, "bob": bob})

	rec := api.do(http.MethodPost, "/api/plants", "alice", map[string]any{"name": "Seedling", "position_x": 0, "position_y": 0})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[plantBody](t, rec).Plant.ID.String()

	rec = api.do(http.MethodPost, "/api/plants/"+id+"/complete", "alice", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "stage_too_low", decode[errorBody](t, rec).Error.Code)

	rec = api.do(http.MethodGet, "/api/plants/"+id, "bob", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/plants/not-a-uuid", "alice", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_id", decode[errorBody](t, rec).Error.Code)

	rec = api.do(http.MethodGet, "/api/plants?include_inactive=maybe", "alice", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStepsOverHTTP(t *testing.T) {
	api := newAPITest(t, tokenMap{"alice": uuid.New()})

	rec := api.do(http.MethodPost, "/api/plants", "alice", map[string]any{
		"name": "Thesis", "position_x": 3, "position_y": 3,
		"task_steps": []map[string]string{{"title": "Outline"}, {"title": "Draft"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[plantBody](t, rec).Plant
	require.True(t, p.IsMultiStep)
	require.Len(t, p.TaskSteps, 2)

	base := "/api/plants/" + p.ID.String() + "/steps/"
	rec = api.do(http.MethodPost, base+p.TaskSteps[0].ID.String()+"/partial", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, decode[services.StepResult](t, rec).Step.IsPartial)

	rec = api.do(http.MethodPost, base+p.TaskSteps[0].ID.String()+"/complete", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.False(t, decode[services.StepResult](t, rec).TaskCompleted)

	rec = api.do(http.MethodPost, base+p.TaskSteps[1].ID.String()+"/complete", "alice", map[string]any{"hours": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.StepResult](t, rec)
	require.True(t, res.TaskCompleted)
	require.Equal(t, garden.TaskStatusCompleted, res.Plant.TaskStatus)

	rec = api.do(http.MethodPost, "/api/plants/auto-harvest?force=true", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[services.HarvestSummary](t, rec)
	require.Len(t, summary.Harvested, 1)
}
