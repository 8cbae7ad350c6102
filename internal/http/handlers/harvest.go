package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/savioxavier/swe-group-7/internal/http/response"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/clock"
	"github.com/savioxavier/swe-group-7/internal/services"
)

type HarvestHandler struct {
	harvest services.HarvestService
	clk     clock.Clock
}

func NewHarvestHandler(harvest services.HarvestService, clk clock.Clock) *HarvestHandler {
	return &HarvestHandler{harvest: harvest, clk: clk}
}

// POST /api/plants/:id/complete
func (h *HarvestHandler) CompleteTask(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.harvest.Complete(dbcOf(c), userID, plantID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/plants/:id/harvest
func (h *HarvestHandler) HarvestPlant(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	plantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.harvest.Harvest(dbcOf(c), userID, plantID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plant": p})
}

// POST /api/plants/auto-harvest?force=true
// Runs the harvest sweep over the caller's own plants only.
func (h *HarvestHandler) AutoHarvest(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	force := false
	if raw := c.Query("force"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondErr(c, apierr.Validation("invalid_query", "force must be a boolean"))
			return
		}
		force = v
	}
	summary, err := h.harvest.AutoHarvest(dbcOf(c), h.clk.Now(), force, &userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, summary)
}
