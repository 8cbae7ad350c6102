package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/savioxavier/swe-group-7/internal/http/response"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/services"
)

const dateLayout = "2006-01-02"

type WorkHandler struct {
	work services.WorkService
}

func NewWorkHandler(work services.WorkService) *WorkHandler {
	return &WorkHandler{work: work}
}

// POST /api/plants/:id/work
// body: { "hours": 1.5, "work_date": "2025-03-10" }
func (h *WorkHandler) LogWork(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Hours    float64 `json:"hours"`
		WorkDate string  `json:"work_date"`
	}
	if !bindJSON(c, &req) {
		return
	}
	var workDate *time.Time
	if req.WorkDate != "" {
		d, err := time.Parse(dateLayout, req.WorkDate)
		if err != nil {
			response.RespondErr(c, apierr.Validation("invalid_work_date", "work_date must be YYYY-MM-DD"))
			return
		}
		workDate = &d
	}
	res, err := h.work.LogWork(dbcOf(c), userID, plantID, req.Hours, workDate)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/plants/:id/work
func (h *WorkHandler) ListWork(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	logs, err := h.work.ListTimeLogs(dbcOf(c), userID, plantID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"time_logs": logs})
}
