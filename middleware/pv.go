package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/tripjournal/models"
)

// PostPagePrefix is the public URL prefix of a single post.
const PostPagePrefix = "/post/"

// PageViewRecorder counts successful GETs of public post pages per day and path.
// API reads of a post by slug are folded onto the page path so both count once each.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		path, ok := pageViewPath(c)
		if !ok {
			return
		}
		if err := RecordPageView(db, path, time.Now()); err != nil {
			_ = c.Error(err)
		}
	}
}

func pageViewPath(c *gin.Context) (string, bool) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return "", false
	}
	switch c.FullPath() {
	case "/post/:slug", "/api/v1/pages/post/:slug":
		return PostPagePrefix + slug, true
	}
	return "", false
}

// RecordPageView adds one view of path on the UTC day of at.
func RecordPageView(db *gorm.DB, path string, at time.Time) error {
	at = at.UTC()
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	// atomic upsert keeps concurrent first views of a day from colliding
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
	}).Create(&models.PageView{Date: day, Path: path, Count: 1}).Error
}
