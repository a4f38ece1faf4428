package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/tripjournal/services"
	"github.com/cppla/tripjournal/utils"
)

const feedCacheControl = "public, max-age=3600"

// FeedController serves the RSS feed and the sitemap.
type FeedController struct {
	feeds *services.FeedBuilder
}

// NewFeedController creates a new FeedController instance.
func NewFeedController(feeds *services.FeedBuilder) *FeedController {
	return &FeedController{feeds: feeds}
}

// RSS serves the latest published posts as RSS 2.0.
func (f *FeedController) RSS(ctx *gin.Context) {
	f.serveXML(ctx, "rss", "application/rss+xml; charset=utf-8", f.feeds.RSS)
}

// Sitemap serves the sitemap of the site's public pages.
func (f *FeedController) Sitemap(ctx *gin.Context) {
	f.serveXML(ctx, "sitemap", "application/xml; charset=utf-8", f.feeds.Sitemap)
}

func (f *FeedController) serveXML(ctx *gin.Context, name, contentType string, build func(context.Context) ([]byte, error)) {
	key := utils.PublicCacheKey("feeds", name)
	body, ok := utils.CacheGetBytes(key)
	if !ok {
		var err error
		body, err = build(ctx.Request.Context())
		if err != nil {
			utils.Sugar.Errorw("build "+name+" failed", "error", err)
			ctx.String(http.StatusInternalServerError, "failed to generate %s", name)
			return
		}
		utils.CacheSetBytes(key, body, 0)
	}
	ctx.Header("Cache-Control", feedCacheControl)
	ctx.Data(http.StatusOK, contentType, body)
}
