package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"

	"github.com/cppla/tripjournal/config"
	"github.com/cppla/tripjournal/models"
	"github.com/cppla/tripjournal/store/storetest"
	"github.com/cppla/tripjournal/utils"
)

const testPasscode = "bonjour-2024"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type postData struct {
	Post models.Post `json:"post"`
}

type site struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newSite(t *testing.T) *site {
	t.Helper()
	static := t.TempDir()
	for name, body := range map[string]string{
		"index.html": "<!doctype html><title>public</title>",
		"admin.html": "<!doctype html><title>admin</title>",
	} {
		qt.Assert(t, os.WriteFile(filepath.Join(static, name), []byte(body), 0o644), qt.IsNil)
	}

	cfg := config.AppConfig{
		AppPort:            "8080",
		SiteURL:            "https://trip.example.com",
		SiteTitle:          "Europe Trip Tracker",
		SiteTagline:        "Travel journal",
		StaticDir:          static,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 1000,
		GinMode:            "test",
		SessionSecret:      "router-test-secret",
		AdminPasscode:      testPasscode,
		SessionTTLHours:    168,
		CloudName:          "demo",
		CloudAPIKey:        "1234",
		CloudAPISecret:     "s3cr3t",
		CloudUploadPreset:  "trip_unsigned",
	}
	config.Use(cfg)
	utils.SetRedis(nil)
	t.Cleanup(func() { utils.ClearPasscodeFailures("192.0.2.1") })

	return &site{t: t, router: SetupRouter(storetest.OpenDB(t), cfg)}
}

func (s *site) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		qt.Assert(s.t, err, qt.IsNil)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *site) login() {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/admin/auth", map[string]string{"passcode": testPasscode})
	qt.Assert(s.t, w.Code, qt.Equals, http.StatusOK)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == utils.SessionCookieName {
			s.cookie = ck
		}
	}
	qt.Assert(s.t, s.cookie, qt.IsNotNil)
	qt.Assert(s.t, s.cookie.HttpOnly, qt.IsTrue)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	qt.Assert(t, json.Unmarshal(w.Body.Bytes(), &env), qt.IsNil)
	var out T
	qt.Assert(t, json.Unmarshal(env.Data, &out), qt.IsNil)
	return out
}

func media(ids ...string) []map[string]any {
	out := make([]map[string]any, len(ids))
	for i, id := range ids {
		out[i] = map[string]any{"type": "IMAGE", "cldId": id}
	}
	return out
}

func (s *site) createPost(body map[string]any) models.Post {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/posts", body)
	qt.Assert(s.t, w.Code, qt.Equals, http.StatusCreated, qt.Commentf("body: %s", w.Body.String()))
	return decode[postData](s.t, w).Post
}

func TestWrongPasscodeKeepsAdminLocked(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)

	w := s.do(http.MethodPost, "/api/v1/admin/auth", map[string]string{"passcode": "nope"})
	c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
	c.Assert(w.Header().Get("Set-Cookie"), qt.Equals, "")

	w = s.do(http.MethodGet, "/admin/dashboard", nil)
	c.Assert(w.Code, qt.Equals, http.StatusFound)
	c.Assert(w.Header().Get("Location"), qt.Equals, "/admin")

	c.Assert(s.do(http.MethodGet, "/admin", nil).Code, qt.Equals, http.StatusOK)
}

func TestRepeatedWrongPasscodesLockOut(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)

	for i := 0; i < utils.MaxPasscodeFailures; i++ {
		s.do(http.MethodPost, "/api/v1/admin/auth", map[string]string{"passcode": "guess"})
	}
	w := s.do(http.MethodPost, "/api/v1/admin/auth", map[string]string{"passcode": testPasscode})
	c.Assert(w.Code, qt.Equals, http.StatusTooManyRequests)
}

func TestForwardedForCannotDodgeLockout(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)

	guess := func(passcode, forwardedFor string) int {
		b, err := json.Marshal(map[string]string{"passcode": passcode})
		c.Assert(err, qt.IsNil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < utils.MaxPasscodeFailures; i++ {
		c.Assert(guess("guess", fmt.Sprintf("198.51.100.%d", i+1)), qt.Equals, http.StatusUnauthorized)
	}
	c.Assert(guess("guess", "203.0.113.7"), qt.Equals, http.StatusTooManyRequests)
	c.Assert(guess(testPasscode, "203.0.113.8"), qt.Equals, http.StatusTooManyRequests)
}

func TestWritesRequireSession(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)

	body := map[string]any{"title": "Sneaky", "media": media("x")}
	c.Assert(s.do(http.MethodPost, "/api/v1/posts", body).Code, qt.Equals, http.StatusUnauthorized)
	c.Assert(s.do(http.MethodGet, "/api/v1/upload-signature", nil).Code, qt.Equals, http.StatusUnauthorized)
	c.Assert(s.do(http.MethodGet, "/api/v1/admin/posts", nil).Code, qt.Equals, http.StatusUnauthorized)
}

func TestCreateAndInvalidReplaceLeavesMediaUntouched(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)
	s.login()

	post := s.createPost(map[string]any{"title": "Arrival in Paris", "status": "PUBLISHED", "media": media("a", "b", "c")})
	c.Assert(post.Slug, qt.Equals, "arrival-in-paris")
	c.Assert(post.Media, qt.HasLen, 3)

	w := s.do(http.MethodPut, "/api/v1/posts/"+post.ID, map[string]any{"title": "Emptied", "media": []any{}})
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(w.Body.String(), qt.Contains, `"field":"media"`)

	w = s.do(http.MethodGet, "/api/v1/admin/posts/"+post.ID, nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	got := decode[postData](t, w).Post
	c.Assert(got.Title, qt.Equals, "Arrival in Paris")
	c.Assert(got.Media, qt.HasLen, 3)
	for i, m := range got.Media {
		c.Assert(m.Order, qt.Equals, i)
	}

	w = s.do(http.MethodPut, "/api/v1/posts/"+post.ID, map[string]any{"title": "Paris Again", "media": media("z")})
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	got = decode[postData](t, w).Post
	c.Assert(got.Slug, qt.Equals, "arrival-in-paris")
	c.Assert(got.Media, qt.HasLen, 1)
	c.Assert(got.Media[0].CldID, qt.Equals, "z")
}

func TestInvalidPayloadReportsEveryField(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)
	s.login()

	w := s.do(http.MethodPost, "/api/v1/posts", map[string]any{
		"latitude": 123.0,
		"media":    []map[string]any{{"type": "GIF", "cldId": ""}},
	})
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)
	for _, field := range []string{"latitude", "longitude", "media[0].type", "media[0].cldId"} {
		c.Assert(w.Body.String(), qt.Contains, `"field":"`+field+`"`)
	}
}

func TestDraftsStayPrivate(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)
	s.login()

	draft := s.createPost(map[string]any{"title": "Secret Gelato", "media": media("g")})
	c.Assert(draft.Status, qt.Equals, models.StatusDraft)

	admin := s.cookie
	s.cookie = nil
	c.Assert(s.do(http.MethodGet, "/api/v1/pages/post/secret-gelato", nil).Code, qt.Equals, http.StatusNotFound)
	c.Assert(s.do(http.MethodGet, "/post/secret-gelato", nil).Code, qt.Equals, http.StatusNotFound)
	c.Assert(s.do(http.MethodGet, "/api/v1/posts/"+draft.ID, nil).Code, qt.Equals, http.StatusNotFound)

	s.cookie = admin
	c.Assert(s.do(http.MethodGet, "/api/v1/posts/"+draft.ID, nil).Code, qt.Equals, http.StatusOK)
	w := s.do(http.MethodPatch, "/api/v1/posts/"+draft.ID+"/status", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(decode[postData](t, w).Post.Status, qt.Equals, models.StatusPublished)

	s.cookie = nil
	c.Assert(s.do(http.MethodGet, "/api/v1/pages/post/secret-gelato", nil).Code, qt.Equals, http.StatusOK)
	c.Assert(s.do(http.MethodGet, "/post/secret-gelato", nil).Code, qt.Equals, http.StatusOK)

	s.cookie = admin
	w = s.do(http.MethodPatch, "/api/v1/posts/"+draft.ID+"/status", map[string]string{"status": "draft"})
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(decode[postData](t, w).Post.Status, qt.Equals, models.StatusDraft)
	w = s.do(http.MethodPatch, "/api/v1/posts/"+draft.ID+"/status", map[string]string{"status": "ARCHIVED"})
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)
}

func TestRSSEscapesUserText(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)
	s.login()

	s.createPost(map[string]any{
		"title":   "Fish & Chips",
		"caption": `<script>alert("x")</script>`,
		"status":  "PUBLISHED",
		"media":   media("europe-trip/fish"),
	})

	w := s.do(http.MethodGet, "/rss.xml", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Header().Get("Cache-Control"), qt.Equals, "public, max-age=3600")
	c.Assert(w.Header().Get("Content-Type"), qt.Contains, "application/rss+xml")
	body := w.Body.String()
	c.Assert(body, qt.Not(qt.Contains), "<script>")
	c.Assert(body, qt.Contains, "&lt;script&gt;")
	c.Assert(body, qt.Contains, "Fish &amp; Chips")

	w = s.do(http.MethodGet, "/sitemap.xml", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Header().Get("Cache-Control"), qt.Equals, "public, max-age=3600")
	c.Assert(w.Body.String(), qt.Contains, "https://trip.example.com/post/fish-chips")
}

func TestDeleteMissingPostIsNotFound(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)
	s.login()

	c.Assert(s.do(http.MethodDelete, "/api/v1/posts/does-not-exist", nil).Code, qt.Equals, http.StatusNotFound)

	post := s.createPost(map[string]any{"title": "Venice Canals", "status": "PUBLISHED", "media": media("v1", "v2")})
	c.Assert(s.do(http.MethodDelete, "/api/v1/posts/"+post.ID, nil).Code, qt.Equals, http.StatusOK)
	c.Assert(s.do(http.MethodGet, "/api/v1/admin/posts/"+post.ID, nil).Code, qt.Equals, http.StatusNotFound)
}

func TestUploadSignatureAndLogout(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)
	s.login()

	w := s.do(http.MethodGet, "/api/v1/upload-signature", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	sig := decode[map[string]any](t, w)
	c.Assert(sig["apiKey"], qt.Equals, "1234")
	c.Assert(sig["cloudName"], qt.Equals, "demo")
	c.Assert(sig["uploadPreset"], qt.Equals, "trip_unsigned")
	c.Assert(sig["signature"], qt.HasLen, 40)
	c.Assert(w.Body.String(), qt.Not(qt.Contains), "s3cr3t")

	c.Assert(s.do(http.MethodDelete, "/api/v1/admin/auth", nil).Code, qt.Equals, http.StatusOK)
	// the old cookie value is revoked server side
	c.Assert(s.do(http.MethodGet, "/api/v1/upload-signature", nil).Code, qt.Equals, http.StatusUnauthorized)
	c.Assert(s.do(http.MethodGet, "/admin/dashboard", nil).Code, qt.Equals, http.StatusFound)
}

func TestPublicPagesAndStats(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)
	s.login()

	s.createPost(map[string]any{
		"title": "Swiss Alps", "status": "PUBLISHED", "media": media("alps"),
		"latitude": 46.8182, "longitude": 8.2275, "city": "Interlaken", "country": "Switzerland",
	})
	s.createPost(map[string]any{"title": "Somewhere", "status": "PUBLISHED", "media": media("x")})
	s.cookie = nil

	home := decode[map[string]any](t, s.do(http.MethodGet, "/api/v1/pages/home", nil))
	c.Assert(home["posts"], qt.HasLen, 2)

	w := s.do(http.MethodGet, "/api/v1/pages/map?zoom=3", nil)
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	mapView := decode[map[string]any](t, w)
	c.Assert(mapView["pins"], qt.HasLen, 1)
	c.Assert(mapView["clusters"], qt.HasLen, 1)
	c.Assert(s.do(http.MethodGet, "/api/v1/pages/map?zoom=far", nil).Code, qt.Equals, http.StatusBadRequest)

	timeline := decode[map[string]any](t, s.do(http.MethodGet, "/api/v1/pages/timeline", nil))
	c.Assert(timeline["total"], qt.Equals, float64(2))

	c.Assert(s.do(http.MethodGet, "/post/swiss-alps", nil).Code, qt.Equals, http.StatusOK)
	views := decode[map[string]any](t, s.do(http.MethodGet, "/api/v1/stats/posts/swiss-alps", nil))
	c.Assert(views["views"], qt.Equals, float64(1))

	stats := decode[map[string]any](t, s.do(http.MethodGet, "/api/v1/stats", nil))
	c.Assert(stats["posts"], qt.Equals, float64(2))
	c.Assert(stats["countries"], qt.Equals, float64(1))
}

func TestFallbackRoutes(t *testing.T) {
	c := qt.New(t)
	s := newSite(t)

	w := s.do(http.MethodGet, "/api/v1/nope", nil)
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)
	c.Assert(w.Header().Get("Content-Type"), qt.Contains, "application/json")

	w = s.do(http.MethodGet, "/somewhere/else", nil)
	c.Assert(w.Code, qt.Equals, http.StatusNotFound)
	c.Assert(strings.Contains(w.Body.String(), "<title>public</title>"), qt.IsTrue)

	c.Assert(s.do(http.MethodGet, "/health", nil).Code, qt.Equals, http.StatusOK)
	c.Assert(s.do(http.MethodGet, "/metrics", nil).Code, qt.Equals, http.StatusOK)
}
