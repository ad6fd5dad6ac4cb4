package services

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"blog-server/pkg/models"
)

var ErrPostNotFound = errors.New("post not found")

// PostStore loads posts from the content directory on first use and keeps them
// until Invalidate is called.
type PostStore struct {
	contentDir string

	mu         sync.Mutex
	loaded     bool
	posts      []models.Post
	byLink     map[string]int
	loadErrors []models.LoadError
}

func NewPostStore(contentDir string) *PostStore {
	return &PostStore{contentDir: contentDir}
}

func (s *PostStore) ContentDir() string {
	return s.contentDir
}

// Posts returns every published post, newest first.
func (s *PostStore) Posts() ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	return s.posts, nil
}

// Get looks a post up by permalink.
func (s *PostStore) Get(permalink string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return models.Post{}, err
	}
	i, ok := s.byLink[strings.TrimSuffix(permalink, "/")]
	if !ok {
		return models.Post{}, fmt.Errorf("%s: %w", permalink, ErrPostNotFound)
	}
	return s.posts[i], nil
}

// LoadErrors lists the files skipped during the last load.
func (s *PostStore) LoadErrors() ([]models.LoadError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	return s.loadErrors, nil
}

func (s *PostStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.posts = nil
	s.byLink = nil
	s.loadErrors = nil
}

func (s *PostStore) loadLocked() error {
	if s.loaded {
		return nil
	}

	var posts []models.Post
	var loadErrors []models.LoadError

	err := filepath.WalkDir(s.contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.contentDir && errors.Is(err, fs.ErrNotExist) {
				log.Printf("content dir missing path=%s", path)
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !isContentFile(d.Name()) {
			return nil
		}
		relPath, _ := filepath.Rel(s.contentDir, path)

		post, draft, err := loadPost(path, relPath)
		if err != nil {
			log.Printf("content skip path=%s err=%v", relPath, err)
			loadErrors = append(loadErrors, models.LoadError{Path: relPath, Error: err.Error()})
			return nil
		}
		if !draft {
			posts = append(posts, post)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk content %s: %w", s.contentDir, err)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})

	unique := posts[:0]
	byLink := make(map[string]int, len(posts))
	for _, p := range posts {
		if prev, dup := byLink[p.Permalink]; dup {
			loadErrors = append(loadErrors, models.LoadError{
				Path:  p.Path,
				Error: fmt.Sprintf("duplicate permalink %s (already used by %s)", p.Permalink, unique[prev].Path),
			})
			continue
		}
		byLink[p.Permalink] = len(unique)
		unique = append(unique, p)
	}
	posts = unique

	s.posts = posts
	s.byLink = byLink
	s.loadErrors = loadErrors
	s.loaded = true
	return nil
}

func isContentFile(name string) bool {
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".mdx")
}

func loadPost(path, relPath string) (models.Post, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Post{}, false, err
	}
	raw, body, _, err := ParseFrontMatter(content)
	if err != nil {
		return models.Post{}, false, err
	}
	fm, err := DecodeFrontMatter(raw)
	if err != nil {
		return models.Post{}, false, err
	}
	if fm.Draft {
		return models.Post{}, true, nil
	}

	permalink, fileDate := permalinkFor(relPath, fm.Slug)

	date, ok := ParseDate(fm.Date)
	if !ok && fileDate != "" {
		date, ok = ParseDate(fileDate)
	}
	if !ok {
		if info, err := os.Stat(path); err == nil {
			date = info.ModTime()
		}
	}

	title := fm.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	}

	html, err := RenderMarkdown(body)
	if err != nil {
		return models.Post{}, false, err
	}

	post := models.Post{
		Path:                  filepath.ToSlash(relPath),
		Title:                 title,
		Permalink:             permalink,
		Description:           fm.Description,
		Date:                  date,
		DateString:            date.Format("2006-01-02"),
		Tags:                  NormalizeTags(fm.Tags),
		Authors:               normalizeStringList(fm.Authors),
		Image:                 fm.Image,
		Sticky:                fm.Sticky,
		Featured:              fm.Featured,
		Pinned:                fm.Pinned,
		Private:               fm.Private,
		PasswordHint:          fm.PasswordHint,
		Password:              fm.Password,
		Collection:            strings.TrimSpace(fm.Collection),
		CollectionDescription: fm.CollectionDescription,
		Summary:               Summary(body),
		ReadingTime:           ReadingTime(body),
		HTML:                  html,
		Source:                body,
	}
	if post.Tags == nil {
		post.Tags = []models.Tag{}
	}
	if fm.CollectionOrder != nil {
		post.CollectionOrder = *fm.CollectionOrder
		post.HasCollectionOrder = true
	}
	if post.Summary == "" {
		post.Summary = post.Description
	}
	return post, false, nil
}
