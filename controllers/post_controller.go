package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/tripjournal/metrics"
	"github.com/cppla/tripjournal/middleware"
	"github.com/cppla/tripjournal/models"
	"github.com/cppla/tripjournal/services"
	"github.com/cppla/tripjournal/utils"
	"github.com/cppla/tripjournal/validation"
)

// maxListLimit caps ?limit on the public post list.
const maxListLimit = 100

// PostController exposes the post collection over JSON.
type PostController struct {
	posts *services.PostService
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

// ListPosts returns published posts newest first with their ordered media.
func (p *PostController) ListPosts(ctx *gin.Context) {
	limit, ok := queryInt(ctx, "limit", 0)
	if !ok || limit < 0 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "limit must be a non-negative integer")
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	key := utils.PublicCacheKey("posts", "limit="+itoa(limit))
	cachedJSON(ctx, key, func() (interface{}, error) {
		posts, err := p.posts.ListPublished(ctx.Request.Context(), limit)
		if err != nil {
			return nil, err
		}
		return gin.H{"items": posts}, nil
	})
}

// GetPost returns one post. Drafts are visible only with an admin session.
func (p *PostController) GetPost(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	var (
		post *models.Post
		err  error
	)
	if _, admin := middleware.AdminSession(ctx); admin {
		post, err = p.posts.GetByID(ctx.Request.Context(), id)
	} else {
		post, err = p.posts.GetPublishedByID(ctx.Request.Context(), id)
	}
	if err != nil {
		respondError(ctx, "get post", err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// CreatePost stores a new post and its media.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req validation.PostInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "invalid request payload")
		return
	}
	post, err := p.posts.Create(ctx.Request.Context(), &req)
	metrics.RecordPostWrite("create", writeResult(err))
	if err != nil {
		respondError(ctx, "create post", err)
		return
	}
	utils.InvalidatePublicCache()
	utils.Sugar.Infow("post created", "id", post.ID, "slug", post.Slug, "status", post.Status)
	utils.Created(ctx, gin.H{"post": post})
}

// UpdatePost replaces a post's content and its entire media set.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req validation.PostInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "invalid request payload")
		return
	}
	post, err := p.posts.Update(ctx.Request.Context(), ctx.Param("id"), &req)
	metrics.RecordPostWrite("update", writeResult(err))
	if err != nil {
		respondError(ctx, "update post", err)
		return
	}
	utils.InvalidatePublicCache()
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post and its media.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id := ctx.Param("id")
	err := p.posts.Delete(ctx.Request.Context(), id)
	metrics.RecordPostWrite("delete", writeResult(err))
	if err != nil {
		respondError(ctx, "delete post", err)
		return
	}
	utils.InvalidatePublicCache()
	utils.Sugar.Infow("post deleted", "id", id)
	utils.Success(ctx, gin.H{"id": id})
}

// UpdateStatus sets the status given as {"status": ...}; an empty body toggles it.
func (p *PostController) UpdateStatus(ctx *gin.Context) {
	var req struct {
		Status models.Status `json:"status"`
	}
	err := ctx.ShouldBindJSON(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		utils.Error(ctx, http.StatusBadRequest, 40000, "invalid request payload")
		return
	}

	var post *models.Post
	if req.Status == "" {
		post, err = p.posts.ToggleStatus(ctx.Request.Context(), ctx.Param("id"))
	} else {
		status := models.Status(strings.ToUpper(strings.TrimSpace(string(req.Status))))
		post, err = p.posts.SetStatus(ctx.Request.Context(), ctx.Param("id"), status)
	}
	metrics.RecordPostWrite("status", writeResult(err))
	if err != nil {
		respondError(ctx, "update status", err)
		return
	}
	utils.InvalidatePublicCache()
	utils.Success(ctx, gin.H{"post": post})
}
