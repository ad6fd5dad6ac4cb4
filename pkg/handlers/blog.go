package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"blog-server/pkg/services"

	"github.com/gin-gonic/gin"
)

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}

func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.Posts.Posts()
	if err != nil {
		log.Printf("list posts err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posts"})
		return
	}
	res := services.ListPosts(posts, h.viewCounts(c), services.ListOptions{
		Tag:        c.Query("tag"),
		Collection: c.Query("collection"),
		Sort:       c.Query("sort"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "pageSize", services.DefaultPageSize),
	})
	c.JSON(http.StatusOK, res)
}

// GetPost returns a post with its rendered body. Private posts need a live grant.
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.Posts.Get(c.Query("permalink"))
	if errors.Is(err, services.ErrPostNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		log.Printf("get post err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load post"})
		return
	}

	if post.Private && !h.hasGrant(c, services.PostKey(post.Permalink)) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":        "password required",
			"title":        post.Title,
			"permalink":    post.Permalink,
			"passwordHint": post.PasswordHint,
		})
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) FeaturedPosts(c *gin.Context) {
	posts, err := h.Posts.Posts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posts"})
		return
	}
	c.JSON(http.StatusOK, services.FeaturedPosts(posts))
}

func (h *Handler) PopularPosts(c *gin.Context) {
	posts, err := h.Posts.Posts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posts"})
		return
	}
	c.JSON(http.StatusOK, services.PopularPosts(posts, h.viewCounts(c), queryInt(c, "limit", 5)))
}

func (h *Handler) RelatedPosts(c *gin.Context) {
	current, err := h.Posts.Get(c.Query("permalink"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	posts, err := h.Posts.Posts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posts"})
		return
	}
	c.JSON(http.StatusOK, services.RelatedPosts(posts, current, queryInt(c, "limit", 3)))
}

func (h *Handler) Search(c *gin.Context) {
	posts, err := h.Posts.Posts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posts"})
		return
	}
	c.JSON(http.StatusOK, services.SearchPosts(posts, c.Query("q"), queryInt(c, "limit", 10)))
}

func (h *Handler) Tags(c *gin.Context) {
	posts, err := h.Posts.Posts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posts"})
		return
	}
	c.JSON(http.StatusOK, services.ExtractTags(posts))
}

func (h *Handler) Collections(c *gin.Context) {
	posts, err := h.Posts.Posts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posts"})
		return
	}
	c.JSON(http.StatusOK, services.ExtractCollections(posts, h.Site))
}

func (h *Handler) CollectionDetail(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing collection name"})
		return
	}
	posts, err := h.Posts.Posts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posts"})
		return
	}
	collection, ok := services.FindCollection(services.ExtractCollections(posts, h.Site), name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *Handler) RecordView(c *gin.Context) {
	var req struct {
		Permalink string `json:"permalink"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Permalink == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	post, err := h.Posts.Get(req.Permalink)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	views, err := h.Views.Record(c.Request.Context(), post.Permalink)
	if err != nil {
		log.Printf("record view permalink=%s err=%v", post.Permalink, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record view"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"permalink": post.Permalink, "views": views})
}

func (h *Handler) ListViews(c *gin.Context) {
	counts, err := h.Views.Counts(c.Request.Context())
	if err != nil {
		log.Printf("list views err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read views"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) SiteData(c *gin.Context) {
	c.JSON(http.StatusOK, h.Site)
}

func (h *Handler) Projects(c *gin.Context) {
	c.JSON(http.StatusOK, services.FilterProjects(h.Site.Projects, c.Query("tag"), c.Query("type")))
}

func (h *Handler) Friends(c *gin.Context) {
	c.JSON(http.StatusOK, services.FilterFriends(h.Site.Friends, c.Query("category")))
}
