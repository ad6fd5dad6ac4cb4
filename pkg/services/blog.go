package services

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"blog-server/pkg/models"
)

const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
	SortAZ      = "az"
	SortZA      = "za"

	DefaultPageSize = 10
	MaxPageSize     = 50

	missingCollectionOrder = 9999
)

type ListOptions struct {
	Tag        string
	Collection string
	Sort       string
	Page       int
	PageSize   int
}

type ListResult struct {
	Pinned   []models.Post `json:"pinned"`
	Posts    []models.Post `json:"posts"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Sort     string        `json:"sort"`
}

// ListPosts filters, sorts and paginates posts. Pinned posts are reported apart
// and never take part in sorting or paging.
func ListPosts(posts []models.Post, views map[string]int64, opts ListOptions) ListResult {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}
	opts.Sort = normalizeSort(opts.Sort)

	res := ListResult{
		Pinned:   []models.Post{},
		Posts:    []models.Post{},
		Page:     opts.Page,
		PageSize: opts.PageSize,
		Sort:     opts.Sort,
	}

	var rest []models.Post
	for _, p := range FilterByTag(posts, opts.Tag) {
		if opts.Collection != "" && p.Collection != opts.Collection {
			continue
		}
		if p.Pinned {
			res.Pinned = append(res.Pinned, p.Preview())
			continue
		}
		rest = append(rest, p.Preview())
	}

	SortPosts(rest, opts.Sort, views)
	res.Total = len(rest)

	start := (opts.Page - 1) * opts.PageSize
	if start < len(rest) {
		end := start + opts.PageSize
		if end > len(rest) {
			end = len(rest)
		}
		res.Posts = rest[start:end]
	}
	return res
}

func normalizeSort(mode string) string {
	switch mode {
	case SortNewest, SortOldest, SortPopular, SortAZ, SortZA:
		return mode
	}
	return SortNewest
}

// SortPosts orders posts in place. Unknown modes sort newest first.
func SortPosts(posts []models.Post, mode string, views map[string]int64) {
	newer := func(a, b models.Post) bool { return a.Date.After(b.Date) }

	switch normalizeSort(mode) {
	case SortOldest:
		sort.SliceStable(posts, func(i, j int) bool { return posts[j].Date.After(posts[i].Date) })
	case SortPopular:
		sort.SliceStable(posts, func(i, j int) bool {
			vi, vj := views[posts[i].Permalink], views[posts[j].Permalink]
			if vi != vj {
				return vi > vj
			}
			return newer(posts[i], posts[j])
		})
	case SortAZ:
		sort.SliceStable(posts, func(i, j int) bool { return compareTitles(posts[i].Title, posts[j].Title) < 0 })
	case SortZA:
		sort.SliceStable(posts, func(i, j int) bool { return compareTitles(posts[i].Title, posts[j].Title) > 0 })
	default:
		sort.SliceStable(posts, func(i, j int) bool { return newer(posts[i], posts[j]) })
	}
}

func compareTitles(a, b string) int {
	return strings.Compare(lowerCaser.String(a), lowerCaser.String(b))
}

// FilterByTag keeps posts carrying the tag label. An empty label keeps everything.
func FilterByTag(posts []models.Post, tag string) []models.Post {
	if tag == "" {
		return posts
	}
	var out []models.Post
	for _, p := range posts {
		for _, t := range p.Tags {
			if t.Label == tag {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// FeaturedPosts returns featured or sticky posts, highest sticky first.
func FeaturedPosts(posts []models.Post) []models.Post {
	out := []models.Post{}
	for _, p := range posts {
		if p.Featured || p.Sticky > 0 {
			out = append(out, p.Preview())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Sticky != out[j].Sticky {
			return out[i].Sticky > out[j].Sticky
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// ExtractTags counts tag usage across posts, most used first.
func ExtractTags(posts []models.Post) []models.Tag {
	index := map[string]int{}
	tags := []models.Tag{}
	for _, p := range posts {
		for _, t := range p.Tags {
			if t.Label == "" {
				continue
			}
			if i, ok := index[t.Label]; ok {
				tags[i].Count++
				continue
			}
			index[t.Label] = len(tags)
			tags = append(tags, models.Tag{Label: t.Label, Permalink: t.Permalink, Count: 1})
		}
	}
	sort.SliceStable(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Label < tags[j].Label
	})
	return tags
}

// ExtractCollections groups posts by their collection field.
func ExtractCollections(posts []models.Post, site *models.SiteData) []models.Collection {
	var order []string
	byName := map[string]*models.Collection{}
	titles := map[string]map[string]bool{}

	for _, p := range posts {
		if p.Collection == "" {
			continue
		}
		c, ok := byName[p.Collection]
		if !ok {
			c = &models.Collection{
				ID:          p.Collection,
				Name:        p.Collection,
				Description: defaultCollectionDescription(site, p.Collection),
				Path:        CollectionPath(p.Collection),
				Slug:        CollectionSlug(p.Collection),
				EncodedSlug: url.QueryEscape(p.Collection),
				Posts:       []models.Post{},
			}
			byName[p.Collection] = c
			titles[p.Collection] = map[string]bool{}
			order = append(order, p.Collection)
		}
		if titles[p.Collection][p.Title] {
			continue
		}
		titles[p.Collection][p.Title] = true
		c.Posts = append(c.Posts, p.Preview())

		if p.CollectionDescription != "" && c.Description == defaultCollectionDescription(site, p.Collection) {
			c.Description = p.CollectionDescription
		}
		if p.Image != "" && c.Image == "" {
			c.Image = p.Image
		}
	}

	out := make([]models.Collection, 0, len(order))
	for _, name := range order {
		c := byName[name]
		if meta, ok := site.CollectionMeta(name); ok {
			if meta.Name != "" {
				c.Name = meta.Name
			}
			if meta.Description != "" {
				c.Description = meta.Description
			}
			if meta.Image != "" {
				c.Image = meta.Image
			}
		}
		if c.Image == "" && site != nil {
			c.Image = site.DefaultCollectionImage
		}
		sortCollectionPosts(c.Posts)
		out = append(out, *c)
	}
	return out
}

// defaultCollectionTemplate is used when the site data sets no
// default_collection_description. {name} stands for the collection name.
const defaultCollectionTemplate = "{name}系列文章"

func defaultCollectionDescription(site *models.SiteData, name string) string {
	tmpl := defaultCollectionTemplate
	if site != nil && site.DefaultCollectionDescription != "" {
		tmpl = site.DefaultCollectionDescription
	}
	return strings.ReplaceAll(tmpl, "{name}", name)
}

func sortCollectionPosts(posts []models.Post) {
	order := func(p models.Post) int {
		if !p.HasCollectionOrder {
			return missingCollectionOrder
		}
		return p.CollectionOrder
	}
	sort.SliceStable(posts, func(i, j int) bool {
		oi, oj := order(posts[i]), order(posts[j])
		if oi != oj {
			return oi < oj
		}
		return posts[i].Date.After(posts[j].Date)
	})
}

// FindCollection returns the collection whose id (raw name) matches.
func FindCollection(collections []models.Collection, name string) (models.Collection, bool) {
	for _, c := range collections {
		if c.ID == name {
			return c, true
		}
	}
	return models.Collection{}, false
}

const punctuation = `,.?!;:'"()[]{}`

func keywords(text string) []string {
	var out []string
	for _, w := range strings.Split(lowerCaser.String(text), " ") {
		if w == "" || len([]rune(w)) <= 2 {
			continue
		}
		out = append(out, stripChars(w, punctuation))
	}
	return out
}

func stripChars(s, chars string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return -1
		}
		return r
	}, s)
}

// RelatedPosts scores the other posts against current by shared tags, title words,
// description keywords and publication proximity.
func RelatedPosts(posts []models.Post, current models.Post, limit int) []models.Post {
	if limit <= 0 {
		limit = 3
	}
	currentTags := map[string]bool{}
	for _, t := range current.Tags {
		if t.Label != "" {
			currentTags[lowerCaser.String(t.Label)] = true
		}
	}
	currentTitle := lowerCaser.String(current.Title)
	currentKeywords := map[string]bool{}
	for _, w := range keywords(current.Title + " " + current.Description) {
		currentKeywords[w] = true
	}

	type scored struct {
		post  models.Post
		score float64
	}
	var candidates []scored
	for _, p := range posts {
		if p.Title == "" || p.Title == current.Title || p.Permalink == current.Permalink {
			continue
		}
		score := 0.0

		matchingTags := 0
		for _, t := range p.Tags {
			if currentTags[lowerCaser.String(t.Label)] {
				matchingTags++
			}
		}
		score += math.Min(5, float64(matchingTags*2))

		titleWords := 0
		for _, w := range strings.Split(lowerCaser.String(p.Title), " ") {
			w = stripChars(w, punctuation)
			if len([]rune(w)) > 2 && strings.Contains(currentTitle, w) {
				titleWords++
			}
		}
		score += math.Min(3, float64(titleWords))

		matchingKeywords := 0
		for _, w := range keywords(p.Title + " " + p.Description) {
			if currentKeywords[w] {
				matchingKeywords++
			}
		}
		score += math.Min(3, float64(matchingKeywords)*0.5)

		days := daysBetween(p.Date, current.Date)
		switch {
		case days <= 90:
			score += 2
		case days <= 180:
			score += 1
		}

		candidates = append(candidates, scored{post: p.Preview(), score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	out := []models.Post{}
	for i := 0; i < len(candidates) && i < limit; i++ {
		out = append(out, candidates[i].post)
	}
	return out
}

// PopularPosts orders posts with at least one view by view count.
func PopularPosts(posts []models.Post, views map[string]int64, limit int) []models.Post {
	out := []models.Post{}
	for _, p := range posts {
		if views[p.Permalink] > 0 {
			out = append(out, p.Preview())
		}
	}
	SortPosts(out, SortPopular, views)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PrivatePosts lists gated posts without their content.
func PrivatePosts(posts []models.Post) []models.Post {
	out := []models.Post{}
	for _, p := range posts {
		if p.Private {
			out = append(out, p.Preview())
		}
	}
	return out
}

func daysBetween(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Hours()) / 24
}
