package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/savioxavier/swe-group-7/internal/domain/garden"
	"github.com/savioxavier/swe-group-7/internal/http/response"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/services"
)

type PlantHandler struct {
	plants services.PlantService
}

func NewPlantHandler(plants services.PlantService) *PlantHandler {
	return &PlantHandler{plants: plants}
}

// GET /api/plants?include_inactive=true
func (h *PlantHandler) ListPlants(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	includeInactive := false
	if raw := c.Query("include_inactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondErr(c, apierr.Validation("invalid_query", "include_inactive must be a boolean"))
			return
		}
		includeInactive = v
	}
	plants, err := h.plants.List(dbcOf(c), userID, includeInactive)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plants": plants})
}

// POST /api/plants
func (h *PlantHandler) CreatePlant(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req services.CreatePlantInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.plants.Create(dbcOf(c), userID, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"plant": p})
}

// GET /api/plants/:id
func (h *PlantHandler) GetPlant(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.plants.Get(dbcOf(c), userID, plantID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plant": p})
}

// PATCH /api/plants/:id
func (h *PlantHandler) UpdatePlant(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.UpdatePlantInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.plants.Update(dbcOf(c), userID, plantID, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plant": p})
}

// DELETE /api/plants/:id
func (h *PlantHandler) DeletePlant(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.plants.Delete(dbcOf(c), userID, plantID); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/plants/:id/care
// body: { "care_type": "water" | "fertilize" | "task_complete" }
func (h *PlantHandler) CarePlant(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		CareType string `json:"care_type" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.plants.Care(dbcOf(c), userID, plantID, garden.CareType(req.CareType))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
