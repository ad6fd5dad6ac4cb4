package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrPostExists = errors.New("file already exists")

// NewPost is the header written for a freshly created post.
type NewPost struct {
	Title       string   `yaml:"title" json:"title"`
	Date        string   `yaml:"date" json:"date"`
	Description string   `yaml:"description,omitempty" json:"description"`
	Tags        []string `yaml:"tags" json:"tags"`
	Collection  string   `yaml:"collection,omitempty" json:"collection"`
	Private     bool     `yaml:"private,omitempty" json:"private"`
	Draft       bool     `yaml:"draft" json:"-"`
}

// CreateContent writes a draft Markdown file at relPath below the content dir.
// Missing directories are created; an existing file is never overwritten.
func CreateContent(contentDir, relPath string, post NewPost, now time.Time) (string, error) {
	if filepath.Ext(relPath) == "" {
		relPath += ".md"
	}
	if !isContentFile(relPath) {
		return "", fmt.Errorf("%s: not a markdown file", relPath)
	}
	fullPath := SafeJoin(contentDir, "", relPath)
	if fullPath == "" {
		return "", ErrInvalidPath
	}
	if _, err := os.Stat(fullPath); err == nil {
		return "", fmt.Errorf("%s: %w", relPath, ErrPostExists)
	}

	if post.Title == "" {
		post.Title = strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	}
	if post.Date == "" {
		post.Date = now.Format("2006-01-02")
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	post.Draft = true

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(post); err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	enc.Close()
	buf.WriteString("---\n\n")
	buf.WriteString(truncateMarker + "\n")

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return filepath.ToSlash(relPath), nil
}
