package middleware

import (
	"net/http"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"

	"github.com/cppla/tripjournal/models"
	"github.com/cppla/tripjournal/store/storetest"
)

func TestPageViewRecorderCountsPostPages(t *testing.T) {
	c := qt.New(t)
	db := storetest.OpenDB(t)

	r := gin.New()
	r.Use(PageViewRecorder(db))
	ok := func(ctx *gin.Context) { ctx.Status(http.StatusOK) }
	r.GET("/post/:slug", func(ctx *gin.Context) {
		if ctx.Param("slug") == "missing" {
			ctx.Status(http.StatusNotFound)
			return
		}
		ctx.Status(http.StatusOK)
	})
	r.GET("/api/v1/pages/post/:slug", ok)
	r.GET("/timeline", ok)

	get(r, "/post/arrival-in-paris", nil)
	get(r, "/post/arrival-in-paris", nil)
	get(r, "/api/v1/pages/post/arrival-in-paris", nil)
	get(r, "/post/missing", nil)
	get(r, "/timeline", nil)

	var views []models.PageView
	c.Assert(db.Find(&views).Error, qt.IsNil)
	c.Assert(views, qt.HasLen, 1)
	c.Assert(views[0].Path, qt.Equals, "/post/arrival-in-paris")
	c.Assert(views[0].Count, qt.Equals, int64(3))
}

func TestRecordPageViewSplitsDays(t *testing.T) {
	c := qt.New(t)
	db := storetest.OpenDB(t)

	day := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	c.Assert(RecordPageView(db, "/post/venice-canals", day), qt.IsNil)
	c.Assert(RecordPageView(db, "/post/venice-canals", day.Add(2*time.Hour)), qt.IsNil)

	var n int64
	c.Assert(db.Model(&models.PageView{}).Count(&n).Error, qt.IsNil)
	c.Assert(n, qt.Equals, int64(2))
}

func TestRecordPageViewUsesUTCDay(t *testing.T) {
	c := qt.New(t)
	db := storetest.OpenDB(t)

	// 01:00 in UTC+8 is still the previous day in UTC
	at := time.Date(2026, 10, 16, 1, 0, 0, 0, time.FixedZone("UTC+8", 8*60*60))
	c.Assert(RecordPageView(db, "/post/x", at), qt.IsNil)

	var view models.PageView
	c.Assert(db.First(&view).Error, qt.IsNil)
	want := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	c.Assert(view.Date.Equal(want), qt.IsTrue, qt.Commentf("stored day %v", view.Date))
}
