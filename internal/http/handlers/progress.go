package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/savioxavier/swe-group-7/internal/http/response"
	"github.com/savioxavier/swe-group-7/internal/services"
)

type ProgressHandler struct {
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GET /api/progress
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	p, err := h.progress.Get(dbcOf(c), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": p})
}
