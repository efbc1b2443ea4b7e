package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gomc/website/metrics"
	"github.com/gomc/website/session"
	"github.com/gomc/website/utils"
)

const (
	// ContextLoginIDKey stores the authenticated admin login ID in the gin context.
	ContextLoginIDKey = "login_id"
	// ContextSessionTokenKey stores the raw session token.
	ContextSessionTokenKey = "session_token"
)

// Authenticator classifies a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) session.Status
}

// SessionRequired lets a request through only with a valid admin session
// cookie. Other requests get 401 and the session result, so the client can
// tell an expired session from a missing one.
func SessionRequired(auth Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, _ := ctx.Cookie(session.CookieName)
		st := auth.Authenticate(ctx.Request.Context(), token)
		metrics.SessionChecksTotal.WithLabelValues(st.Result.String()).Inc()

		switch st.Result {
		case session.SessionValid:
			ctx.Set(ContextLoginIDKey, st.LoginID)
			ctx.Set(ContextSessionTokenKey, token)
			ctx.Next()
			return
		case session.SessionExpired:
			utils.Fail(ctx, http.StatusUnauthorized, 40111, "session expired", gin.H{"auth_result": st.Result})
		default:
			utils.Fail(ctx, http.StatusUnauthorized, 40110, "session invalid", gin.H{"auth_result": st.Result})
		}
		ctx.Abort()
	}
}

// LoginID returns the admin set by SessionRequired.
func LoginID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(ContextLoginIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
