package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondErr derives status and code from the error's kind. Internal errors
// are logged by the request logger and never echo their message.
func RespondErr(c *gin.Context, err error) {
	status := apierr.StatusOf(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		RespondError(c, status, "internal", errInternal)
		return
	}
	RespondError(c, status, apierr.CodeOf(err), err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

var errInternal = errors.New("internal server error")
