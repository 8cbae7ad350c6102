package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/savioxavier/swe-group-7/internal/http/response"
	"github.com/savioxavier/swe-group-7/internal/identity"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/ctxutil"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

type AuthMiddleware struct {
	log      *logger.Logger
	provider identity.Provider
}

func NewAuthMiddleware(log *logger.Logger, provider identity.Provider) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), provider: provider}
}

// RequireAuth resolves the bearer token and attaches the caller to the request
// context. Handlers read it back with ctxutil.GetRequestData.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			am.abort(c, apierr.Unauthenticated("missing_token", "missing or invalid token"))
			return
		}
		userID, err := am.provider.ResolveToken(c.Request.Context(), token)
		if err != nil {
			if apierr.KindOf(err) == apierr.KindInternal {
				am.log.Error("identity provider failed", "error", err)
			}
			am.abort(c, err)
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", userID.String())
		c.Next()
	}
}

func (am *AuthMiddleware) abort(c *gin.Context, err error) {
	response.RespondErr(c, err)
	c.Abort()
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
