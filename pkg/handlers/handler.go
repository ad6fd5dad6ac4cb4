package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"blog-server/pkg/models"
	"blog-server/pkg/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler carries the services the HTTP endpoints work with.
type Handler struct {
	Posts    *services.PostStore
	Views    *services.ViewStore
	Gate     *services.Gate
	Proxy    *services.Proxy
	Notifier *services.Notifier
	Site     *models.SiteData

	PrivatePassword    string
	WrongPasswordDelay time.Duration
}

// viewCounts never fails the request: popularity only affects ordering.
func (h *Handler) viewCounts(c *gin.Context) map[string]int64 {
	if h.Views == nil {
		return map[string]int64{}
	}
	counts, err := h.Views.Counts(c.Request.Context())
	if err != nil {
		log.Printf("views read err=%v", err)
		return map[string]int64{}
	}
	return counts
}

// sessionIDKey names the only gate value kept in the cookie; grants are rows
// in the view store keyed by this id.
const sessionIDKey = "sid"

// sessionID returns the visitor's session id, creating and saving one when create is set.
func sessionID(c *gin.Context, create bool) (string, error) {
	session := sessions.Default(c)
	if sid, ok := session.Get(sessionIDKey).(string); ok && sid != "" {
		return sid, nil
	}
	if !create {
		return "", nil
	}
	sid := uuid.NewString()
	session.Set(sessionIDKey, sid)
	return sid, session.Save()
}

// hasGrant checks for a live grant under prefix and drops an expired one.
func (h *Handler) hasGrant(c *gin.Context, prefix string) bool {
	sid, _ := sessionID(c, false)
	if sid == "" || h.Views == nil {
		return false
	}
	ctx := c.Request.Context()
	grant, ok, err := h.Views.LoadGrant(ctx, sid, prefix)
	if err != nil {
		log.Printf("grant read err=%v", err)
		return false
	}
	if !ok {
		return false
	}
	if h.Gate.Valid(grant.Auth, grant.Expiry) {
		return true
	}
	h.clearGrant(c, prefix)
	return false
}

func (h *Handler) storeGrant(c *gin.Context, prefix string, grant services.Grant) error {
	if h.Views == nil {
		return errors.New("no grant store configured")
	}
	sid, err := sessionID(c, true)
	if err != nil {
		return err
	}
	ctx := c.Request.Context()
	if err := h.Views.SaveGrant(ctx, sid, prefix, grant); err != nil {
		return err
	}
	if _, err := h.Views.PruneGrants(ctx, h.Gate.Now()); err != nil {
		log.Printf("grant prune err=%v", err)
	}
	return nil
}

func (h *Handler) clearGrant(c *gin.Context, prefix string) {
	sid, _ := sessionID(c, false)
	if sid == "" || h.Views == nil {
		return
	}
	if err := h.Views.DeleteGrant(c.Request.Context(), sid, prefix); err != nil {
		log.Printf("grant delete err=%v", err)
	}
}

// slowDown delays a failed unlock attempt unless the client goes away first.
func (h *Handler) slowDown(ctx context.Context) {
	if h.WrongPasswordDelay <= 0 {
		return
	}
	t := time.NewTimer(h.WrongPasswordDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (h *Handler) recordAccess(c *gin.Context, scope, permalink string) {
	if h.Views == nil {
		return
	}
	err := h.Views.RecordPrivateAccess(c.Request.Context(), services.PrivateAccess{
		Scope:     scope,
		Permalink: permalink,
		ClientIP:  c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		log.Printf("private access log err=%v", err)
	}
}
