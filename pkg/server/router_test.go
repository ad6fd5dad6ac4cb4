package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blog-server/pkg/config"
	"blog-server/pkg/handlers"
	"blog-server/pkg/models"
	"blog-server/pkg/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const testSessionKey = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

var testPosts = map[string]string{
	"hello.md": `---
title: Hello World
date: 2024-05-01
tags: [go, intro]
collection: Getting Started
collection_order: 1
---
Welcome to the blog.
<!-- truncate -->
The rest of the post.`,
	"secret.md": `---
title: Secret Diary
date: 2024-05-02
private: true
password: s3cret
passwordHint: the usual one
---
Only for friends.`,
	"notice.md": `---
title: Notice
date: 2020-01-01
pinned: true
sticky: 1
---
Pinned notice.`,
}

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	h       *handlers.Handler
	cookies []*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	for name, body := range testPosts {
		path := filepath.Join(content, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	views, err := services.OpenViewStore(filepath.Join(dir, "views.db"), 100)
	if err != nil {
		t.Fatalf("OpenViewStore: %v", err)
	}
	t.Cleanup(func() { _ = views.Close() })

	h := &handlers.Handler{
		Posts:    services.NewPostStore(content),
		Views:    views,
		Gate:     services.NewGate(time.Hour, "default-pass"),
		Proxy:    services.NewProxy(),
		Notifier: services.NewNotifier(),
		Site: &models.SiteData{
			Title: "Test Blog",
			Projects: []models.Project{
				{Title: "one", Type: "web", Tags: []string{"go"}},
				{Title: "two", Type: "tool"},
			},
		},
		PrivatePassword: "letmein",
	}
	return &testServer{t: t, router: NewRouter(h, []byte(testSessionKey), ""), h: h}
}

// do sends a request carrying the cookies collected so far and keeps any new ones.
func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req)
}

// send serves a prepared request with the collected cookies.
func (s *testServer) send(req *http.Request) *httptest.ResponseRecorder {
	s.t.Helper()
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if fresh := w.Result().Cookies(); len(fresh) > 0 {
		s.cookies = fresh
	}
	return w
}

// writePost adds a content file and drops the cached posts.
func (s *testServer) writePost(name, body string) {
	s.t.Helper()
	path := filepath.Join(s.h.Posts.ContentDir(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		s.t.Fatalf("write %s: %v", name, err)
	}
	s.h.Posts.Invalidate()
}

// mintSession signs a session cookie holding values with key, the way a
// browser would carry it after logging in.
func mintSession(t *testing.T, key []byte, values map[string]interface{}) *http.Cookie {
	t.Helper()
	r := gin.New()
	r.Use(sessions.Sessions("blogsession", cookie.NewStore(key)))
	r.GET("/", func(c *gin.Context) {
		session := sessions.Default(c)
		for k, v := range values {
			session.Set(k, v)
		}
		if err := session.Save(); err != nil {
			t.Errorf("session save: %v", err)
		}
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie minted")
	}
	return cookies[0]
}

// loginAdmin gives the test client a valid admin session.
func (s *testServer) loginAdmin() {
	s.t.Helper()
	s.cookies = []*http.Cookie{mintSession(s.t, []byte(testSessionKey), map[string]interface{}{
		"access_token": "gho_test",
		"login":        "admin",
	})}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func setConfig[T any](t *testing.T, target *T, value T) {
	t.Helper()
	old := *target
	*target = value
	t.Cleanup(func() { *target = old })
}

func TestListPosts(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/posts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var res services.ListResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Pinned) != 1 || res.Pinned[0].Title != "Notice" {
		t.Errorf("pinned = %+v", res.Pinned)
	}
	if res.Total != 2 || res.Posts[0].Title != "Secret Diary" {
		t.Errorf("posts = %+v", res.Posts)
	}
	if strings.Contains(w.Body.String(), "Only for friends") {
		t.Error("listing leaked a private body")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestGetPublicPost(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/posts/get?permalink=/blog/hello", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if !strings.Contains(body["html"].(string), "The rest of the post.") {
		t.Errorf("html = %v", body["html"])
	}
	if body["date"] != "2024-05-01" {
		t.Errorf("date = %v", body["date"])
	}

	if w := s.do(http.MethodGet, "/api/posts/get?permalink=/blog/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing post status = %d", w.Code)
	}
}

func TestPrivatePostUnlockFlow(t *testing.T) {
	s := newTestServer(t)
	const link = "/api/posts/get?permalink=/blog/secret"

	w := s.do(http.MethodGet, link, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("locked status = %d", w.Code)
	}
	body := decode(t, w)
	if body["error"] != "password required" || body["passwordHint"] != "the usual one" {
		t.Errorf("locked body = %v", body)
	}

	w = s.do(http.MethodPost, "/api/posts/unlock", map[string]string{"permalink": "/blog/secret", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", w.Code)
	}

	w = s.do(http.MethodPost, "/api/posts/unlock", map[string]string{"permalink": "/blog/secret", "password": "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("unlock status = %d body = %s", w.Code, w.Body.String())
	}
	if decode(t, w)["success"] != true {
		t.Errorf("unlock body = %s", w.Body.String())
	}

	w = s.do(http.MethodGet, link, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Only for friends.") {
		t.Fatalf("unlocked get = %d %s", w.Code, w.Body.String())
	}

	if w := s.do(http.MethodPost, "/api/posts/lock", map[string]string{"permalink": "/blog/secret"}); w.Code != http.StatusOK {
		t.Fatalf("lock status = %d", w.Code)
	}
	if w := s.do(http.MethodGet, link, nil); w.Code != http.StatusForbidden {
		t.Errorf("after lock status = %d", w.Code)
	}
}

func TestPrivatePostGrantExpires(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()
	s.h.Gate.Now = func() time.Time { return now }

	w := s.do(http.MethodPost, "/api/posts/unlock", map[string]string{"permalink": "/blog/secret", "password": "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("unlock status = %d", w.Code)
	}
	now = now.Add(2 * time.Hour)
	if w := s.do(http.MethodGet, "/api/posts/get?permalink=/blog/secret", nil); w.Code != http.StatusForbidden {
		t.Errorf("expired grant status = %d", w.Code)
	}
	now = now.Add(-2 * time.Hour)
	if w := s.do(http.MethodGet, "/api/posts/get?permalink=/blog/secret", nil); w.Code != http.StatusForbidden {
		t.Errorf("expired grant should have been removed, status = %d", w.Code)
	}
}

func TestUnlockPublicPost(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/posts/unlock", map[string]string{"permalink": "/blog/hello", "password": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	w = s.do(http.MethodPost, "/api/posts/unlock", map[string]string{"permalink": "/blog/none", "password": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestPrivatePage(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(http.MethodGet, "/api/private", nil); w.Code != http.StatusForbidden {
		t.Fatalf("locked status = %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/private/unlock", map[string]string{"password": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/private/unlock", map[string]string{"password": "letmein"}); w.Code != http.StatusOK {
		t.Fatalf("unlock status = %d", w.Code)
	}

	w := s.do(http.MethodGet, "/api/private", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unlocked status = %d", w.Code)
	}
	var res struct {
		Posts []models.Post `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Posts) != 1 || res.Posts[0].Title != "Secret Diary" {
		t.Errorf("private posts = %+v", res.Posts)
	}

	s.do(http.MethodPost, "/api/private/lock", nil)
	if w := s.do(http.MethodGet, "/api/private", nil); w.Code != http.StatusForbidden {
		t.Errorf("after lock status = %d", w.Code)
	}

	access, err := s.h.Views.RecentPrivateAccess(t.Context(), 10)
	if err != nil {
		t.Fatalf("RecentPrivateAccess: %v", err)
	}
	if len(access) != 1 || access[0].Scope != "site" {
		t.Errorf("private access log = %+v", access)
	}
}

func TestViews(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, "/api/views", map[string]string{"permalink": "/blog/hello"})
		if w.Code != http.StatusOK {
			t.Fatalf("record status = %d", w.Code)
		}
	}
	if w := s.do(http.MethodPost, "/api/views", map[string]string{"permalink": "/blog/unknown"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown permalink status = %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/views", "{not json"); w.Code != http.StatusBadRequest {
		t.Errorf("invalid json status = %d", w.Code)
	}

	w := s.do(http.MethodGet, "/api/views", nil)
	if body := decode(t, w); body["/blog/hello"] != float64(2) {
		t.Errorf("views = %v", body)
	}

	w = s.do(http.MethodGet, "/api/posts/popular", nil)
	var popular []models.Post
	if err := json.Unmarshal(w.Body.Bytes(), &popular); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(popular) != 1 || popular[0].Permalink != "/blog/hello" {
		t.Errorf("popular = %+v", popular)
	}
}

func TestTaxonomyEndpoints(t *testing.T) {
	s := newTestServer(t)

	var tags []models.Tag
	json.Unmarshal(s.do(http.MethodGet, "/api/tags", nil).Body.Bytes(), &tags)
	if len(tags) != 2 {
		t.Errorf("tags = %+v", tags)
	}

	w := s.do(http.MethodGet, "/api/collections/detail?name=Getting+Started", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("collection status = %d", w.Code)
	}
	if body := decode(t, w); body["description"] != "Getting Started系列文章" {
		t.Errorf("collection = %v", body)
	}
	if w := s.do(http.MethodGet, "/api/collections/detail", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/collections/detail?name=nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown collection status = %d", w.Code)
	}

	var results []services.SearchResult
	json.Unmarshal(s.do(http.MethodGet, "/api/search?q=welcome", nil).Body.Bytes(), &results)
	if len(results) != 1 || results[0].Item.Title != "Hello World" {
		t.Errorf("search = %+v", results)
	}

	var featured []models.Post
	json.Unmarshal(s.do(http.MethodGet, "/api/posts/featured", nil).Body.Bytes(), &featured)
	if len(featured) != 1 || featured[0].Title != "Notice" {
		t.Errorf("featured = %+v", featured)
	}

	var projects []models.Project
	json.Unmarshal(s.do(http.MethodGet, "/api/projects?type=tool", nil).Body.Bytes(), &projects)
	if len(projects) != 1 || projects[0].Title != "two" {
		t.Errorf("projects = %+v", projects)
	}
}

func TestProxyCORS(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodOptions, "/api/weather", nil)
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("preflight = %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" || w.Header().Get("Access-Control-Allow-Methods") != "GET,OPTIONS" {
		t.Errorf("cors headers = %v", w.Header())
	}

	w = s.do(http.MethodPost, "/api/daily-quote", nil)
	if w.Code != http.StatusMethodNotAllowed || decode(t, w)["error"] != "Method not allowed" {
		t.Errorf("post to proxy = %d %s", w.Code, w.Body.String())
	}
}

func TestGeoFallback(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()
	setConfig(t, &config.GeoAPIURL, upstream.URL)
	setConfig(t, &config.QWeatherAPIKey, "k")

	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/geo?location=nowhere", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Error    string               `json:"error"`
		Code     string               `json:"code"`
		Location []models.GeoLocation `json:"location"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "404" || len(body.Location) != 1 || body.Location[0].ID != "101190101" {
		t.Errorf("fallback = %+v", body)
	}
}

func TestWeatherNotConfigured(t *testing.T) {
	setConfig(t, &config.QWeatherAPIKey, "")
	s := newTestServer(t)
	if w := s.do(http.MethodGet, "/api/weather", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}
}

func TestLocationUsesForwardedFor(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"city":"Nanjing","region":"Jiangsu","country_name":"China","latitude":32.06,"longitude":118.78}`))
	}))
	defer upstream.Close()
	setConfig(t, &config.LocationAPIURL, upstream.URL)

	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/location", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if gotPath != "/203.0.113.9/json/" {
		t.Errorf("upstream path = %s", gotPath)
	}
	if decode(t, w)["country"] != "China" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestTelegramNotify(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()
	setConfig(t, &config.TelegramAPIURL, upstream.URL)
	setConfig(t, &config.TelegramBotToken, "t0k")
	setConfig(t, &config.TelegramChatID, "1")

	s := newTestServer(t)
	if w := s.do(http.MethodGet, "/api/telegram-notify", nil); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/telegram-notify", map[string]string{"pageTitle": "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing data status = %d", w.Code)
	}

	w := s.do(http.MethodPost, "/api/telegram-notify", models.NotifyRequest{
		PageTitle:  "Private",
		PageURL:    "https://blog.example/private",
		DeviceInfo: &models.DeviceInfo{Platform: "Linux"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("notify status = %d body = %s", w.Code, w.Body.String())
	}
	if decode(t, w)["message"] != "Notification sent successfully" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAdminRequiresLogin(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(http.MethodGet, "/admin/api/stats", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("stats status = %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/admin/api/reload", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("reload status = %d", w.Code)
	}
}

func TestUnlockManyPrivatePosts(t *testing.T) {
	s := newTestServer(t)
	const n = 30
	for i := 0; i < n; i++ {
		s.writePost(fmt.Sprintf("locked/post-%02d.md", i), fmt.Sprintf("---\ntitle: Locked %d\nprivate: true\npassword: pw-%d\n---\nBody %d", i, i, i))
	}

	for i := 0; i < n; i++ {
		w := s.do(http.MethodPost, "/api/posts/unlock", map[string]string{
			"permalink": fmt.Sprintf("/blog/locked/post-%02d", i),
			"password":  fmt.Sprintf("pw-%d", i),
		})
		if w.Code != http.StatusOK {
			t.Fatalf("unlock %d status = %d body = %s", i, w.Code, w.Body.String())
		}
		for _, c := range s.cookies {
			if len(c.String()) > 4096 {
				t.Fatalf("after %d unlocks cookie %s is %d bytes", i+1, c.Name, len(c.String()))
			}
		}
	}

	for i := 0; i < n; i++ {
		w := s.do(http.MethodGet, fmt.Sprintf("/api/posts/get?permalink=/blog/locked/post-%02d", i), nil)
		if w.Code != http.StatusOK {
			t.Errorf("get %d status = %d", i, w.Code)
		}
	}
}

func TestUnlockNumericPassword(t *testing.T) {
	s := newTestServer(t)
	s.writePost("numeric.md", "---\ntitle: 2024\nprivate: true\npassword: 654321\npasswordHint: 1234\n---\nNumbers.")

	w := s.do(http.MethodGet, "/api/posts/get?permalink=/blog/numeric", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("locked status = %d body = %s", w.Code, w.Body.String())
	}
	if hint := decode(t, w)["passwordHint"]; hint != "1234" {
		t.Errorf("hint = %v", hint)
	}
	if w := s.do(http.MethodPost, "/api/posts/unlock", map[string]string{"permalink": "/blog/numeric", "password": "654321"}); w.Code != http.StatusOK {
		t.Fatalf("unlock status = %d body = %s", w.Code, w.Body.String())
	}
	w = s.do(http.MethodGet, "/api/posts/get?permalink=/blog/numeric", nil)
	if w.Code != http.StatusOK || decode(t, w)["title"] != "2024" {
		t.Errorf("unlocked get = %d %s", w.Code, w.Body.String())
	}
}

func TestPlaceholderSecretCookieRejected(t *testing.T) {
	setConfig(t, &config.SessionSecret, "change-me")
	s := newTestServer(t)
	s.router = NewRouter(s.h, config.SessionKey(), "")

	s.cookies = []*http.Cookie{mintSession(t, []byte("change-me"), map[string]interface{}{"access_token": "forged"})}
	if w := s.do(http.MethodGet, "/admin/api/stats", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("forged cookie status = %d", w.Code)
	}
}

func TestAdminSessionAccepted(t *testing.T) {
	s := newTestServer(t)
	s.loginAdmin()
	if w := s.do(http.MethodGet, "/admin/api/stats", nil); w.Code != http.StatusOK {
		t.Errorf("stats status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestAdminCreatePost(t *testing.T) {
	s := newTestServer(t)
	s.loginAdmin()

	w := s.do(http.MethodPost, "/admin/api/posts", map[string]string{"path": "drafts/new-idea", "title": "New Idea"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["path"] != "drafts/new-idea.md" || body["status"] != "created" {
		t.Errorf("create body = %v", body)
	}
	if _, err := os.Stat(filepath.Join(s.h.Posts.ContentDir(), "drafts", "new-idea.md")); err != nil {
		t.Errorf("created file: %v", err)
	}

	if w := s.do(http.MethodPost, "/admin/api/posts", map[string]string{"path": "drafts/new-idea.md"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/admin/api/posts", map[string]string{"path": "../escape.md"}); w.Code != http.StatusBadRequest {
		t.Errorf("traversal status = %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/admin/api/posts", "{broken"); w.Code != http.StatusBadRequest {
		t.Errorf("invalid json status = %d", w.Code)
	}
}

func TestAdminMedia(t *testing.T) {
	setConfig(t, &config.StaticPath, t.TempDir())
	setConfig(t, &config.MediaFolder, "img")
	s := newTestServer(t)
	s.loginAdmin()

	upload := func(withFile bool) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("folder", "go")
		if withFile {
			fw, err := mw.CreateFormFile("file", "hello world.png")
			if err != nil {
				t.Fatalf("CreateFormFile: %v", err)
			}
			fw.Write([]byte("png bytes"))
		}
		mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/admin/api/media", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return s.send(req)
	}

	if w := upload(false); w.Code != http.StatusBadRequest {
		t.Errorf("upload without file status = %d", w.Code)
	}
	w := upload(true)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d body = %s", w.Code, w.Body.String())
	}
	var saved services.MediaFile
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(saved.Name, "hello_world_") || !strings.HasSuffix(saved.Name, ".png") || saved.Size != 9 {
		t.Errorf("saved = %+v", saved)
	}
	if saved.URL != "/static/img/go/"+saved.Name {
		t.Errorf("url = %s", saved.URL)
	}

	var files []services.MediaFile
	json.Unmarshal(s.do(http.MethodGet, "/admin/api/media?folder=go", nil).Body.Bytes(), &files)
	if len(files) != 1 || files[0].Name != saved.Name {
		t.Errorf("listed = %+v", files)
	}
	if w := s.do(http.MethodGet, "/admin/api/media?folder=../..", nil); w.Code != http.StatusBadRequest {
		t.Errorf("list traversal status = %d", w.Code)
	}

	if w := s.do(http.MethodDelete, "/admin/api/media", map[string]string{"folder": "go", "name": "missing.png"}); w.Code != http.StatusNotFound {
		t.Errorf("delete missing status = %d", w.Code)
	}
	if w := s.do(http.MethodDelete, "/admin/api/media", map[string]string{"folder": "go", "name": "../secret.png"}); w.Code != http.StatusBadRequest {
		t.Errorf("delete traversal status = %d", w.Code)
	}
	if w := s.do(http.MethodDelete, "/admin/api/media", "{broken"); w.Code != http.StatusBadRequest {
		t.Errorf("delete invalid json status = %d", w.Code)
	}
	w = s.do(http.MethodDelete, "/admin/api/media", map[string]string{"folder": "go", "name": saved.Name})
	if w.Code != http.StatusOK || decode(t, w)["status"] != "deleted" {
		t.Errorf("delete = %d %s", w.Code, w.Body.String())
	}
}

func TestAdminStatsAndReload(t *testing.T) {
	s := newTestServer(t)
	s.loginAdmin()

	s.do(http.MethodPost, "/api/views", map[string]string{"permalink": "/blog/hello"})
	s.do(http.MethodPost, "/api/posts/unlock", map[string]string{"permalink": "/blog/secret", "password": "s3cret"})

	w := s.do(http.MethodGet, "/admin/api/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats struct {
		Posts         int                      `json:"posts"`
		Private       int                      `json:"private"`
		Tags          int                      `json:"tags"`
		Collections   int                      `json:"collections"`
		Views         int64                    `json:"views"`
		TrackedPosts  int                      `json:"trackedPosts"`
		LoadErrors    []models.LoadError       `json:"loadErrors"`
		PrivateAccess []services.PrivateAccess `json:"privateAccess"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Posts != 3 || stats.Private != 1 || stats.Tags != 2 || stats.Collections != 1 {
		t.Errorf("content stats = %+v", stats)
	}
	if stats.Views != 1 || stats.TrackedPosts != 1 {
		t.Errorf("view stats = %+v", stats)
	}
	if len(stats.PrivateAccess) != 1 || stats.PrivateAccess[0].Permalink != "/blog/secret" {
		t.Errorf("private access = %+v", stats.PrivateAccess)
	}

	path := filepath.Join(s.h.Posts.ContentDir(), "broken.md")
	if err := os.WriteFile(path, []byte("---\ntitle: [unclosed\n---\nBody"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w = s.do(http.MethodPost, "/admin/api/reload", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reload status = %d", w.Code)
	}
	var reload struct {
		Status string             `json:"status"`
		Errors []models.LoadError `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &reload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reload.Status != "ok" || len(reload.Errors) != 1 || reload.Errors[0].Path != "broken.md" {
		t.Errorf("reload = %+v", reload)
	}
}
