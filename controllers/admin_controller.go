package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/tripjournal/config"
	"github.com/cppla/tripjournal/metrics"
	"github.com/cppla/tripjournal/middleware"
	"github.com/cppla/tripjournal/services"
	"github.com/cppla/tripjournal/utils"
)

// AdminController handles the passcode gate and the admin reads.
type AdminController struct {
	cfg   config.AppConfig
	posts *services.PostService
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(cfg config.AppConfig, posts *services.PostService) *AdminController {
	return &AdminController{cfg: cfg, posts: posts}
}

// Login exchanges the shared passcode for a signed session cookie.
func (a *AdminController) Login(ctx *gin.Context) {
	ip := ctx.ClientIP()
	if utils.PasscodeLockedOut(ip) {
		metrics.AdminLogins.WithLabelValues("locked").Inc()
		utils.Error(ctx, http.StatusTooManyRequests, 42902, "too many failed attempts, try again later")
		return
	}

	var req struct {
		Passcode string `json:"passcode" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "invalid request payload")
		return
	}

	if !utils.VerifyPasscode(a.cfg, strings.TrimSpace(req.Passcode)) {
		n := utils.RecordPasscodeFailure(ip)
		metrics.AdminLogins.WithLabelValues("failure").Inc()
		utils.Sugar.Warnw("admin passcode rejected", "ip", ip, "failures", n)
		utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid passcode")
		return
	}
	utils.ClearPasscodeFailures(ip)

	ttl := utils.SessionTTL()
	token, claims, err := utils.GenerateSessionToken(ttl)
	if err != nil {
		utils.Sugar.Errorw("issue session token failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to start session")
		return
	}
	metrics.AdminLogins.WithLabelValues("success").Inc()
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(utils.SessionCookieName, token, int(ttl.Seconds()), "/", "", a.cfg.CookieSecure, true)
	utils.Success(ctx, gin.H{"authenticated": true, "expiresAt": claims.ExpiresAt.Time})
}

// Logout revokes the current session and clears the cookie.
func (a *AdminController) Logout(ctx *gin.Context) {
	if claims, ok := middleware.AdminSession(ctx); ok {
		utils.RevokeSession(claims.ID, claims.ExpiresAt.Time)
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(utils.SessionCookieName, "", -1, "/", "", a.cfg.CookieSecure, true)
	utils.Success(ctx, gin.H{"authenticated": false})
}

// Session reports whether the caller holds a valid admin session.
func (a *AdminController) Session(ctx *gin.Context) {
	claims, ok := middleware.AdminSession(ctx)
	if !ok {
		utils.Success(ctx, gin.H{"authenticated": false})
		return
	}
	utils.Success(ctx, gin.H{"authenticated": true, "expiresAt": claims.ExpiresAt.Time})
}

// Dashboard lists every post, drafts included, with status counts.
func (a *AdminController) Dashboard(ctx *gin.Context) {
	dash, err := a.posts.Dashboard(ctx.Request.Context())
	if err != nil {
		respondError(ctx, "load dashboard", err)
		return
	}
	utils.Success(ctx, dash)
}

// EditPost loads a post in any status for the editor.
func (a *AdminController) EditPost(ctx *gin.Context) {
	post, err := a.posts.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, "load post for editing", err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}
