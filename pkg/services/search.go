package services

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"blog-server/pkg/models"

	"github.com/sahilm/fuzzy"
)

const (
	// minFuzzyRatio is the shortest a query term may be relative to the word it
	// fuzzily matches: "concurency" finds "concurrency", "cncy" does not.
	minFuzzyRatio = 0.6

	snippetBefore = 30
	snippetAfter  = 100
)

type searchField struct {
	name   string
	weight float64
	texts  func(p models.Post) []string
}

var searchFields = []searchField{
	{"title", 2, func(p models.Post) []string { return []string{p.Title} }},
	{"description", 1, func(p models.Post) []string { return []string{p.Description} }},
	{"tags", 0.8, func(p models.Post) []string {
		labels := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			labels[i] = t.Label
		}
		return labels
	}},
	{"source", 0.5, func(p models.Post) []string {
		if p.Private {
			return nil
		}
		return []string{p.Source}
	}},
}

var maxSearchWeight = func() float64 {
	total := 0.0
	for _, f := range searchFields {
		total += f.weight
	}
	return total
}()

// SearchMatch names a field that matched and the text around the first hit.
// For tags the text is the matching tag label.
type SearchMatch struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

type SearchResult struct {
	Item    models.Post   `json:"item"`
	Score   float64       `json:"score"`
	Matches []SearchMatch `json:"matches"`
}

// SearchPosts matches every query term case-insensitively against title,
// description, tags and body, tolerating typos. Score is in [0,1]; lower is
// more relevant. Bodies of private posts are never searched.
func SearchPosts(posts []models.Post, query string, limit int) []SearchResult {
	results := []SearchResult{}
	var terms [][]rune
	for _, t := range strings.Fields(query) {
		terms = append(terms, foldRunes(t))
	}
	if len(terms) == 0 {
		return results
	}
	if limit <= 0 {
		limit = 10
	}

	for _, p := range posts {
		relevance := 0.0
		matches := []SearchMatch{}
		for _, f := range searchFields {
			quality, snippet, ok := matchField(f, f.texts(p), terms)
			if !ok {
				continue
			}
			relevance += f.weight * quality
			matches = append(matches, SearchMatch{Field: f.name, Text: snippet})
		}
		if relevance == 0 {
			continue
		}
		results = append(results, SearchResult{
			Item:    p.Preview(),
			Score:   1 - relevance/maxSearchWeight,
			Matches: matches,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].Item.Date.After(results[j].Item.Date)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// matchField averages the best match quality of each term over the field's
// texts and returns the snippet of the first term that hit.
func matchField(f searchField, texts []string, terms [][]rune) (float64, string, bool) {
	total := 0.0
	snippet, found := "", false
	for _, term := range terms {
		best := 0.0
		for _, text := range texts {
			if text == "" {
				continue
			}
			runes := []rune(text)
			quality, sp, ok := matchTerm(runes, term)
			if !ok || quality <= best {
				continue
			}
			best = quality
			if !found {
				if f.name == "tags" {
					snippet = text
				} else {
					snippet = makeSnippet(runes, sp)
				}
			}
		}
		if best > 0 {
			found = true
			total += best
		}
	}
	if !found {
		return 0, "", false
	}
	return total / float64(len(terms)), snippet, true
}

// span is a rune range [start, end) inside a field text.
type span struct{ start, end int }

// matchTerm finds term in text: an exact case-insensitive substring scores 1,
// otherwise the closest fuzzy word match scores its length ratio.
func matchTerm(text, term []rune) (float64, span, bool) {
	folded := string(foldRunes(string(text)))
	if i := strings.Index(folded, string(term)); i >= 0 {
		start := utf8.RuneCountInString(folded[:i])
		return 1, span{start, start + len(term)}, true
	}

	words := splitWords(text)
	if len(words) == 0 {
		return 0, span{}, false
	}
	data := make([]string, len(words))
	for i, w := range words {
		data[i] = string(foldRunes(string(text[w.start:w.end])))
	}

	best, bestSpan := 0.0, span{}
	for _, m := range fuzzy.Find(string(term), data) {
		w := words[m.Index]
		ratio := float64(len(term)) / float64(w.end-w.start)
		if ratio > best {
			best, bestSpan = ratio, w
		}
	}
	if best < minFuzzyRatio {
		return 0, span{}, false
	}
	return best, bestSpan, true
}

func splitWords(text []rune) []span {
	var words []span
	start := -1
	for i, r := range text {
		inWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case inWord && start < 0:
			start = i
		case !inWord && start >= 0:
			words = append(words, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, span{start, len(text)})
	}
	return words
}

// makeSnippet cuts the text around a hit, marking cut ends with "...".
func makeSnippet(text []rune, sp span) string {
	start := max(0, sp.start-snippetBefore)
	end := min(len(text), sp.end+snippetAfter)
	snippet := string(text[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet += "..."
	}
	return snippet
}

// foldRunes lower-cases rune by rune so rune offsets stay aligned with the input.
func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}
