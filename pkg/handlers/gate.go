package handlers

import (
	"errors"
	"log"
	"net/http"

	"blog-server/pkg/services"

	"github.com/gin-gonic/gin"
)

type unlockRequest struct {
	Permalink string `json:"permalink"`
	Password  string `json:"password"`
}

func (h *Handler) UnlockPost(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Permalink == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	post, err := h.Posts.Get(req.Permalink)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	grant, err := h.Gate.UnlockPost(post, req.Password)
	switch {
	case errors.Is(err, services.ErrNotPrivate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Post is not private"})
		return
	case errors.Is(err, services.ErrWrongPassword):
		h.slowDown(c.Request.Context())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Wrong password", "passwordHint": post.PasswordHint})
		return
	}

	if err := h.storeGrant(c, services.PostKey(post.Permalink), grant); err != nil {
		log.Printf("grant save err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	h.recordAccess(c, "post", post.Permalink)
	c.JSON(http.StatusOK, gin.H{"success": true, "expiry": grant.Expiry})
}

func (h *Handler) LockPost(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Permalink == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	h.clearGrant(c, services.PostKey(req.Permalink))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) UnlockPrivate(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	grant, err := h.Gate.Unlock(h.PrivatePassword, req.Password)
	if err != nil {
		h.slowDown(c.Request.Context())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Wrong password"})
		return
	}
	if err := h.storeGrant(c, services.SiteGateKey, grant); err != nil {
		log.Printf("grant save err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	h.recordAccess(c, "site", "")
	c.JSON(http.StatusOK, gin.H{"success": true, "expiry": grant.Expiry})
}

func (h *Handler) LockPrivate(c *gin.Context) {
	h.clearGrant(c, services.SiteGateKey)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PrivatePage lists the private posts to a visitor holding the site-wide grant.
func (h *Handler) PrivatePage(c *gin.Context) {
	if !h.hasGrant(c, services.SiteGateKey) {
		c.JSON(http.StatusForbidden, gin.H{"error": "password required"})
		return
	}
	posts, err := h.Posts.Posts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": services.PrivatePosts(posts)})
}
