package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/cppla/tripjournal/config"
	"github.com/cppla/tripjournal/controllers"
	"github.com/cppla/tripjournal/middleware"
	"github.com/cppla/tripjournal/services"
	"github.com/cppla/tripjournal/store"
	"github.com/cppla/tripjournal/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, cfg config.AppConfig) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// ClientIP keys the passcode lockout and rate limits; only listed proxies may set it
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		utils.Sugar.Warnf("invalid trusted proxies %v, trusting none: %v", cfg.TrustedProxies, err)
		_ = r.SetTrustedProxies(nil)
	}
	// Request log goes to its own rolling file; without a path it joins the app log
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			utils.Sugar.Warnf("request log %s unavailable, using app log: %v", cfg.GinPath, err)
		} else {
			accessLog = gl
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, false))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	postService := services.NewPostService(store.NewPostStore(db))
	mediaURLs := services.NewMediaURLs(cfg.CloudName)
	presenter := services.NewPresenter(postService, mediaURLs)
	feeds := services.NewFeedBuilder(postService, mediaURLs, services.SiteInfo{
		URL:         cfg.SiteURL,
		Title:       cfg.SiteTitle,
		Description: cfg.SiteTagline,
	})

	shellController := controllers.NewShellController(cfg.StaticDir, postService)
	postController := controllers.NewPostController(postService)
	pageController := controllers.NewPageController(presenter)
	feedController := controllers.NewFeedController(feeds)
	adminController := controllers.NewAdminController(cfg, postService)
	uploadController := controllers.NewUploadController(services.NewUploadSigner(cfg))
	statsController := controllers.NewStatsController(db, postService)

	r.Static("/static", cfg.StaticDir)

	// Public pages
	r.GET("/", shellController.Public)
	r.GET("/timeline", shellController.Public)
	r.GET("/map", shellController.Public)
	r.GET("/post/:slug", shellController.PostPage)
	r.GET("/rss.xml", feedController.RSS)
	r.GET("/sitemap.xml", feedController.Sitemap)

	// Admin pages; /admin itself is the passcode form
	r.GET("/admin", shellController.Admin)
	adminPages := r.Group("/admin")
	adminPages.Use(middleware.AdminPageRequired())
	adminPages.GET("/dashboard", shellController.Admin)
	adminPages.GET("/posts/new", shellController.Admin)
	adminPages.GET("/posts/:id/edit", shellController.Admin)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	pages := api.Group("/pages")
	pages.GET("/home", pageController.Home)
	pages.GET("/timeline", pageController.Timeline)
	pages.GET("/map", pageController.Map)
	pages.GET("/post/:slug", pageController.Post)

	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/stats", statsController.GetStats)
	api.GET("/stats/posts/:slug", statsController.GetPostViews)

	loginLimit := middleware.RateLimitMiddleware(cfg.RateLimitPerMinute)
	writeLimit := middleware.RateLimitMiddleware(cfg.RateLimitPerMinute)

	authGroup := api.Group("/admin/auth")
	authGroup.GET("", adminController.Session)
	authGroup.POST("", loginLimit, adminController.Login)
	authGroup.DELETE("", adminController.Logout)

	protected := api.Group("")
	protected.Use(middleware.AdminAPIRequired())
	protected.GET("/admin/posts", adminController.Dashboard)
	protected.GET("/admin/posts/:id", adminController.EditPost)
	protected.GET("/upload-signature", uploadController.Signature)
	protected.POST("/posts", writeLimit, postController.CreatePost)
	protected.PUT("/posts/:id", writeLimit, postController.UpdatePost)
	protected.PATCH("/posts/:id/status", writeLimit, postController.UpdateStatus)
	protected.DELETE("/posts/:id", writeLimit, postController.DeletePost)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		if strings.HasPrefix(path, "/static/") {
			utils.Error(ctx, http.StatusNotFound, 40402, "static asset not found")
			return
		}
		shellController.NotFound(ctx)
	})

	return r
}
