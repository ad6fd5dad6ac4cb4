package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"blog-server/pkg/models"
)

var (
	ErrWrongPassword = errors.New("wrong password")
	ErrNotPrivate    = errors.New("post is not private")
)

// SiteGateKey prefixes the storage keys of the site-wide private page.
const SiteGateKey = "blog_auth"

// Grant is what a successful unlock stores: an opaque auth hash and an expiry in unix ms.
type Grant struct {
	Auth   string `json:"-"`
	Expiry int64  `json:"expiry"`
}

type Gate struct {
	TTL             time.Duration
	DefaultPassword string
	Now             func() time.Time
}

func NewGate(ttl time.Duration, defaultPassword string) *Gate {
	return &Gate{TTL: ttl, DefaultPassword: defaultPassword, Now: time.Now}
}

// PostKey is the storage key prefix of a post: blog_auth_<permalink with / as _>.
func PostKey(permalink string) string {
	return SiteGateKey + "_" + ArticleID(permalink)
}

// PasswordFor is the post's own password, else the gate default.
func (g *Gate) PasswordFor(post models.Post) string {
	if post.Password != "" {
		return post.Password
	}
	return g.DefaultPassword
}

// UnlockPost checks the password of a private post.
func (g *Gate) UnlockPost(post models.Post, password string) (Grant, error) {
	if !post.Private {
		return Grant{}, ErrNotPrivate
	}
	return g.Unlock(g.PasswordFor(post), password)
}

// Unlock compares the given password against the expected one and issues a grant.
func (g *Gate) Unlock(expected, given string) (Grant, error) {
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(given)) != 1 {
		return Grant{}, ErrWrongPassword
	}
	now := g.Now()
	sum := sha256.Sum256([]byte(expected + now.UTC().Format(time.RFC3339Nano)))
	return Grant{
		Auth:   hex.EncodeToString(sum[:]),
		Expiry: now.Add(g.TTL).UnixMilli(),
	}, nil
}

// Valid reports whether a stored grant is present and not yet expired.
func (g *Gate) Valid(auth string, expiry int64) bool {
	return auth != "" && expiry > g.Now().UnixMilli()
}
