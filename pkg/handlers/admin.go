package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"blog-server/pkg/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func (h *Handler) HandleReload(c *gin.Context) {
	h.Posts.Invalidate()
	loadErrors, err := h.Posts.LoadErrors()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "errors": loadErrors})
}

func (h *Handler) HandleSync(c *gin.Context) {
	session := sessions.Default(c)
	token, _ := session.Get("access_token").(string)
	out, err := services.SyncContent(h.Posts, token)
	if err != nil {
		log.Printf("content sync err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": out})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": out})
}

func (h *Handler) Stats(c *gin.Context) {
	posts, err := h.Posts.Posts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posts"})
		return
	}
	loadErrors, _ := h.Posts.LoadErrors()
	counts := h.viewCounts(c)

	var totalViews int64
	for _, v := range counts {
		totalViews += v
	}
	private := 0
	for _, p := range posts {
		if p.Private {
			private++
		}
	}

	recent := []services.PrivateAccess{}
	if h.Views != nil {
		if recent, err = h.Views.RecentPrivateAccess(c.Request.Context(), 20); err != nil {
			log.Printf("private access read err=%v", err)
			recent = []services.PrivateAccess{}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":         len(posts),
		"private":       private,
		"tags":          len(services.ExtractTags(posts)),
		"collections":   len(services.ExtractCollections(posts, h.Site)),
		"views":         totalViews,
		"trackedPosts":  len(counts),
		"loadErrors":    loadErrors,
		"privateAccess": recent,
	})
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
		services.NewPost
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	relPath, err := services.CreateContent(h.Posts.ContentDir(), req.Path, req.NewPost, time.Now())
	switch {
	case errors.Is(err, services.ErrPostExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.Posts.Invalidate()
	c.JSON(http.StatusCreated, gin.H{"status": "created", "path": relPath})
}
