package server

import (
	"os"

	"blog-server/pkg/handlers"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every endpoint onto a gin engine.
func NewRouter(h *handlers.Handler, sessionKey []byte, staticDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), handlers.RequestID)

	// Session Setup
	store := cookie.NewStore(sessionKey)
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 30 * 24 * 3600})
	r.Use(sessions.Sessions("blogsession", store))

	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			r.Static("/static", staticDir)
		}
	}

	// --- Proxies ---
	proxy := r.Group("/api", handlers.ProxyCORS)
	{
		proxy.Any("/weather", h.Weather)
		proxy.Any("/geo", h.Geo)
		proxy.Any("/location", h.Location)
		proxy.Any("/daily-quote", h.DailyQuote)
	}
	r.Any("/api/telegram-notify", h.TelegramNotify)

	// --- Blog ---
	api := r.Group("/api")
	{
		api.GET("/posts", h.ListPosts)
		api.GET("/posts/get", h.GetPost)
		api.GET("/posts/featured", h.FeaturedPosts)
		api.GET("/posts/popular", h.PopularPosts)
		api.GET("/posts/related", h.RelatedPosts)
		api.POST("/posts/unlock", h.UnlockPost)
		api.POST("/posts/lock", h.LockPost)
		api.GET("/search", h.Search)
		api.GET("/tags", h.Tags)
		api.GET("/collections", h.Collections)
		api.GET("/collections/detail", h.CollectionDetail)
		api.GET("/views", h.ListViews)
		api.POST("/views", h.RecordView)
		api.GET("/private", h.PrivatePage)
		api.POST("/private/unlock", h.UnlockPrivate)
		api.POST("/private/lock", h.LockPrivate)
		api.GET("/site", h.SiteData)
		api.GET("/projects", h.Projects)
		api.GET("/friends", h.Friends)
	}

	// --- Admin ---
	r.GET("/admin/login", handlers.GithubLogin)
	r.GET("/auth/callback", handlers.AuthCallback)
	r.GET("/admin/logout", handlers.Logout)

	admin := r.Group("/admin/api")
	admin.Use(handlers.AuthRequired)
	{
		admin.POST("/reload", h.HandleReload)
		admin.POST("/sync", h.HandleSync)
		admin.GET("/stats", h.Stats)
		admin.POST("/posts", h.CreatePost)

		admin.GET("/media", handlers.ListMedia)
		admin.POST("/media", handlers.UploadMedia)
		admin.DELETE("/media", handlers.DeleteMedia)
	}

	return r
}
