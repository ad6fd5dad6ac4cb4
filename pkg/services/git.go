package services

import (
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"blog-server/pkg/config"
)

// ExecuteGitWithToken runs git in dir, substituting the configured remote name in
// args with its URL carrying token as credentials. The token never reaches the log.
func ExecuteGitWithToken(dir, token string, args ...string) (string, error) {
	cmdGetUrl := exec.Command("git", "remote", "get-url", config.GitRemote)
	cmdGetUrl.Dir = dir
	outUrl, err := cmdGetUrl.Output()
	if err != nil {
		return "Failed to get remote url", err
	}
	remoteUrl := strings.TrimSpace(string(outUrl))
	u, err := url.Parse(remoteUrl)
	if err != nil {
		return "Invalid remote url", err
	}
	u.User = url.UserPassword("oauth2", token)
	authenticatedUrl := u.String()
	newArgs := make([]string, len(args))
	copy(newArgs, args)
	for i, v := range newArgs {
		if v == config.GitRemote {
			newArgs[i] = authenticatedUrl
		}
	}
	cmd := exec.Command("git", newArgs...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	safeLog := string(output)
	if token != "" {
		safeLog = strings.ReplaceAll(safeLog, authenticatedUrl, remoteUrl)
		safeLog = strings.ReplaceAll(safeLog, token, "***")
	}
	return safeLog, err
}

// SyncContent pulls the content repository and drops the post cache on success.
func SyncContent(store *PostStore, token string) (string, error) {
	out, err := ExecuteGitWithToken(store.ContentDir(), token, "pull", config.GitRemote, config.GitBranch)
	if err != nil {
		return out, fmt.Errorf("git pull: %w", err)
	}
	store.Invalidate()
	return out, nil
}
