package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/tripjournal/middleware"
	"github.com/cppla/tripjournal/models"
	"github.com/cppla/tripjournal/services"
	"github.com/cppla/tripjournal/utils"
)

// StatsController provides site statistics such as content counts and page views.
type StatsController struct {
	db    *gorm.DB
	posts *services.PostService
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, posts *services.PostService) *StatsController {
	return &StatsController{db: db, posts: posts}
}

// GetStats returns published content counts and today's post page views.
func (s *StatsController) GetStats(ctx *gin.Context) {
	counts, err := s.posts.Counts(ctx.Request.Context())
	if err != nil {
		respondError(ctx, "count posts", err)
		return
	}

	var todayViews, totalViews int64
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if err := s.db.WithContext(ctx.Request.Context()).Model(&models.PageView{}).
		Where("date >= ? AND date < ?", day, day.Add(24*time.Hour)).
		Select("COALESCE(SUM(count),0)").
		Scan(&todayViews).Error; err != nil {
		// page views are best effort
		utils.Sugar.Warnw("sum today's page views failed", "error", err)
		todayViews = 0
	}
	if err := s.db.WithContext(ctx.Request.Context()).Model(&models.PageView{}).
		Select("COALESCE(SUM(count),0)").
		Scan(&totalViews).Error; err != nil {
		utils.Sugar.Warnw("sum page views failed", "error", err)
		totalViews = 0
	}

	utils.Success(ctx, gin.H{
		"posts":      counts.Posts,
		"media":      counts.Media,
		"cities":     counts.Cities,
		"countries":  counts.Countries,
		"todayViews": todayViews,
		"totalViews": totalViews,
	})
}

// GetPostViews returns the total page views of one post page.
func (s *StatsController) GetPostViews(ctx *gin.Context) {
	slug := ctx.Param("slug")
	var views int64
	if err := s.db.WithContext(ctx.Request.Context()).Model(&models.PageView{}).
		Where("path = ?", middleware.PostPagePrefix+slug).
		Select("COALESCE(SUM(count),0)").
		Scan(&views).Error; err != nil {
		utils.Sugar.Warnw("sum post page views failed", "slug", slug, "error", err)
		views = 0
	}
	utils.Success(ctx, gin.H{"slug": slug, "views": views})
}
