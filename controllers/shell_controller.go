package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/cppla/tripjournal/services"
	"github.com/cppla/tripjournal/store"
	"github.com/cppla/tripjournal/utils"
)

const (
	publicShell = "index.html"
	adminShell  = "admin.html"
)

// ShellController serves the HTML shells of the browser app; the pages fetch
// their data from the JSON API.
type ShellController struct {
	staticDir string
	posts     *services.PostService
}

// NewShellController creates a new ShellController instance.
func NewShellController(staticDir string, posts *services.PostService) *ShellController {
	return &ShellController{staticDir: staticDir, posts: posts}
}

// Public serves the public app shell.
func (s *ShellController) Public(ctx *gin.Context) {
	s.serve(ctx, http.StatusOK, publicShell)
}

// PostPage serves the public shell for a published post and 404 otherwise.
func (s *ShellController) PostPage(ctx *gin.Context) {
	_, err := s.posts.GetPublishedBySlug(ctx.Request.Context(), ctx.Param("slug"))
	switch {
	case err == nil:
		s.serve(ctx, http.StatusOK, publicShell)
	case errors.Is(err, store.ErrNotFound):
		s.serve(ctx, http.StatusNotFound, publicShell)
	default:
		utils.Sugar.Errorw("resolve post page failed", "path", ctx.Request.URL.Path, "error", err)
		ctx.String(http.StatusInternalServerError, "internal server error")
	}
}

// NotFound serves the public shell with 404 for unknown page URLs.
func (s *ShellController) NotFound(ctx *gin.Context) {
	s.serve(ctx, http.StatusNotFound, publicShell)
}

// Admin serves the admin shell. The passcode form and the dashboard share it.
func (s *ShellController) Admin(ctx *gin.Context) {
	ctx.Header("Cache-Control", "no-store")
	s.serve(ctx, http.StatusOK, adminShell)
}

func (s *ShellController) serve(ctx *gin.Context, status int, name string) {
	b, err := os.ReadFile(filepath.Join(s.staticDir, name))
	if err != nil {
		utils.Sugar.Errorw("read shell failed", "file", name, "error", err)
		ctx.String(http.StatusInternalServerError, "page unavailable")
		return
	}
	ctx.Data(status, "text/html; charset=utf-8", b)
}
