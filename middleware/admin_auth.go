package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/tripjournal/utils"
)

// ContextSessionIDKey stores the jti of the verified admin session in the gin context.
const ContextSessionIDKey = "admin_session_id"

// AdminLoginPath is where unauthenticated page requests are sent.
const AdminLoginPath = "/admin"

// AdminSession verifies the admin-session cookie. It returns the claims of a valid,
// unrevoked session and false otherwise.
func AdminSession(ctx *gin.Context) (*utils.SessionClaims, bool) {
	token, err := ctx.Cookie(utils.SessionCookieName)
	if err != nil || token == "" {
		return nil, false
	}
	claims, err := utils.ParseSessionToken(token)
	if err != nil {
		return nil, false
	}
	if utils.IsSessionRevoked(claims.ID) {
		return nil, false
	}
	return claims, true
}

// AdminAPIRequired rejects API calls without a valid admin session with 401.
func AdminAPIRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := AdminSession(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "admin session required")
			ctx.Abort()
			return
		}
		ctx.Set(ContextSessionIDKey, claims.ID)
		ctx.Next()
	}
}

// AdminPageRequired redirects browsers without a valid admin session to the passcode form.
func AdminPageRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := AdminSession(ctx)
		if !ok {
			ctx.Redirect(http.StatusFound, AdminLoginPath)
			ctx.Abort()
			return
		}
		ctx.Set(ContextSessionIDKey, claims.ID)
		ctx.Next()
	}
}
