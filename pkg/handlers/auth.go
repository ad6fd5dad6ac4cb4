package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"blog-server/pkg/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

var githubUserURL = "https://api.github.com/user"

func AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	token := session.Get("access_token")
	if token == nil {
		if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		} else {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
		}
		return
	}
	c.Next()
}

func GithubLogin(c *gin.Context) {
	if config.OauthConf == nil || config.OauthConf.ClientID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "GitHub login not configured"})
		return
	}
	state := uuid.NewString()
	session := sessions.Default(c)
	session.Set("oauth_state", state)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	url := config.OauthConf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func AuthCallback(c *gin.Context) {
	session := sessions.Default(c)
	state, _ := session.Get("oauth_state").(string)
	if state == "" || c.Query("state") != state {
		c.String(http.StatusBadRequest, "Invalid OAuth state")
		return
	}
	session.Delete("oauth_state")

	ctx := c.Request.Context()
	token, err := config.OauthConf.Exchange(ctx, c.Query("code"))
	if err != nil {
		log.Printf("oauth exchange err=%v", err)
		c.String(http.StatusInternalServerError, "OAuth Exchange Failed")
		return
	}

	login, err := githubLogin(c, token)
	if err != nil {
		log.Printf("github user err=%v", err)
		c.String(http.StatusInternalServerError, "Failed to read GitHub user")
		return
	}
	if config.AdminGithubLogin == "" || !strings.EqualFold(login, config.AdminGithubLogin) {
		log.Printf("admin login refused login=%s", login)
		session.Save()
		c.String(http.StatusForbidden, "Not an administrator")
		return
	}

	session.Set("access_token", token.AccessToken)
	session.Set("login", login)
	session.Save()

	c.Redirect(http.StatusFound, "/admin/api/stats")
}

func githubLogin(c *gin.Context, token *oauth2.Token) (string, error) {
	client := config.OauthConf.Client(c.Request.Context(), token)
	resp, err := client.Get(githubUserURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github user: status %d", resp.StatusCode)
	}
	var user struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", err
	}
	return user.Login, nil
}

func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete("access_token")
	session.Delete("login")
	session.Save()
	c.Redirect(http.StatusFound, "/")
}
