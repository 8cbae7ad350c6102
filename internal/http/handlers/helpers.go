package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/savioxavier/swe-group-7/internal/http/response"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/ctxutil"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
)

func dbcOf(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

// caller returns the authenticated user, writing a 401 when there is none.
func caller(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondErr(c, apierr.Unauthenticated("unauthenticated", "missing caller identity"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondErr(c, apierr.Validation("invalid_id", "%s must be a uuid", name))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondErr(c, apierr.Validation("invalid_request", "invalid request body: %v", err))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body and leaves dst untouched.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	response.RespondErr(c, apierr.Validation("invalid_request", "invalid request body: %v", err))
	return false
}
