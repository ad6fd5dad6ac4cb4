package services

import (
	"errors"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lowerCaser  = cases.Lower(language.Und)
	whitespaceR = regexp.MustCompile(`\s+`)
	datePrefixR = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)$`)
)

var ErrInvalidPath = errors.New("invalid path")

func SafeJoin(root, sub, target string) string {
	cleanTarget := filepath.Clean(target)
	if strings.Contains(cleanTarget, "..") {
		return ""
	}
	return filepath.Join(root, sub, cleanTarget)
}

// TagPermalink is the listing URL of a tag: /blog/tags/<escaped lower-case label>.
func TagPermalink(label string) string {
	return "/blog/tags/" + url.PathEscape(lowerCaser.String(label))
}

// CollectionSlug lower-cases a collection name and joins words with dashes.
func CollectionSlug(name string) string {
	return whitespaceR.ReplaceAllString(lowerCaser.String(name), "-")
}

// CollectionPath is the detail URL of a collection, keyed by its raw name.
func CollectionPath(name string) string {
	return "/blog/collections/detail?name=" + url.QueryEscape(name)
}

// permalinkFor derives /blog/<slug> from the front matter slug or the content path.
// A YYYY-MM-DD- file name prefix is returned as the date whether or not a slug is
// set, and is dropped from a path-derived slug.
func permalinkFor(relPath, slug string) (string, string) {
	p := filepath.ToSlash(relPath)
	p = strings.TrimSuffix(p, filepath.Ext(p))
	p = strings.TrimSuffix(p, "/index")

	dir, base := "", p
	if i := strings.LastIndex(p, "/"); i >= 0 {
		dir, base = p[:i+1], p[i+1:]
	}
	datePart := ""
	if m := datePrefixR.FindStringSubmatch(base); m != nil {
		datePart, base = m[1], m[2]
	}

	if slug = strings.Trim(slug, "/ "); slug != "" {
		return "/blog/" + slug, datePart
	}
	return "/blog/" + dir + base, datePart
}

// ArticleID turns a permalink into the identifier used for gate storage keys.
func ArticleID(permalink string) string {
	return strings.ReplaceAll(permalink, "/", "_")
}
