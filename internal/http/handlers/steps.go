package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/savioxavier/swe-group-7/internal/http/response"
	"github.com/savioxavier/swe-group-7/internal/services"
)

type StepHandler struct {
	steps services.StepService
}

func NewStepHandler(steps services.StepService) *StepHandler {
	return &StepHandler{steps: steps}
}

// POST /api/plants/:id/convert-to-multi-step
// body: { "task_steps": [{ "title": "...", "description": "..." }] }
func (h *StepHandler) ConvertToMultiStep(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Steps []services.StepInput `json:"task_steps"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.steps.ConvertToMultiStep(dbcOf(c), userID, plantID, req.Steps)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plant": p})
}

// POST /api/plants/:id/steps
func (h *StepHandler) AddStep(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.StepInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.steps.AddStep(dbcOf(c), userID, plantID, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"plant": p})
}

// POST /api/plants/:id/steps/:stepID/complete
// body (optional): { "hours": 2 }
func (h *StepHandler) CompleteStep(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	stepID, ok := pathUUID(c, "stepID")
	if !ok {
		return
	}
	var req struct {
		Hours float64 `json:"hours"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.steps.CompleteStep(dbcOf(c), userID, plantID, stepID, req.Hours)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/plants/:id/steps/:stepID/partial
// body (optional): { "partial": true, "hours": 1 }
func (h *StepHandler) SetPartial(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	stepID, ok := pathUUID(c, "stepID")
	if !ok {
		return
	}
	var req struct {
		Partial *bool   `json:"partial"`
		Hours   float64 `json:"hours"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	partial := req.Partial == nil || *req.Partial
	res, err := h.steps.SetPartial(dbcOf(c), userID, plantID, stepID, partial, req.Hours)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
