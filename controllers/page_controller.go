package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/tripjournal/services"
	"github.com/cppla/tripjournal/utils"
)

// PageController serves the read projections behind the public pages.
type PageController struct {
	presenter *services.Presenter
}

// NewPageController creates a new PageController instance.
func NewPageController(presenter *services.Presenter) *PageController {
	return &PageController{presenter: presenter}
}

// Home returns the latest posts and the site counts.
func (p *PageController) Home(ctx *gin.Context) {
	cachedJSON(ctx, utils.PublicCacheKey("pages", "home"), func() (interface{}, error) {
		return p.presenter.Home(ctx.Request.Context())
	})
}

// Timeline returns published posts grouped by capture date and by city.
func (p *PageController) Timeline(ctx *gin.Context) {
	cachedJSON(ctx, utils.PublicCacheKey("pages", "timeline"), func() (interface{}, error) {
		return p.presenter.Timeline(ctx.Request.Context())
	})
}

// Post returns one published post by slug with its media URLs.
func (p *PageController) Post(ctx *gin.Context) {
	slug := ctx.Param("slug")
	cachedJSON(ctx, utils.PublicCacheKey("pages", "post", slug), func() (interface{}, error) {
		return p.presenter.Post(ctx.Request.Context(), slug)
	})
}

// Map returns the pins of located posts; ?zoom=0..20 adds grid clusters.
func (p *PageController) Map(ctx *gin.Context) {
	zoom, ok := queryInt(ctx, "zoom", -1)
	if !ok || zoom < -1 {
		utils.Error(ctx, http.StatusBadRequest, 40003, "zoom must be an integer between 0 and "+strconv.Itoa(services.MaxMapZoom))
		return
	}
	if zoom > services.MaxMapZoom {
		zoom = services.MaxMapZoom
	}
	cachedJSON(ctx, utils.PublicCacheKey("pages", "map", "zoom="+itoa(zoom)), func() (interface{}, error) {
		return p.presenter.Map(ctx.Request.Context(), zoom)
	})
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
