package models

import "time"

// FrontMatter holds the fields a post can declare in its YAML/TOML/JSON header.
type FrontMatter struct {
	Title                 string      `yaml:"title" toml:"title" json:"title"`
	Description           string      `yaml:"description" toml:"description" json:"description"`
	Date                  interface{} `yaml:"date" toml:"date" json:"date"`
	Slug                  string      `yaml:"slug" toml:"slug" json:"slug"`
	Image                 string      `yaml:"image" toml:"image" json:"image"`
	Tags                  interface{} `yaml:"tags" toml:"tags" json:"tags"`
	Authors               interface{} `yaml:"authors" toml:"authors" json:"authors"`
	Sticky                int         `yaml:"sticky" toml:"sticky" json:"sticky"`
	Featured              bool        `yaml:"featured" toml:"featured" json:"featured"`
	Pinned                bool        `yaml:"pinned" toml:"pinned" json:"pinned"`
	Draft                 bool        `yaml:"draft" toml:"draft" json:"draft"`
	Private               bool        `yaml:"private" toml:"private" json:"private"`
	Password              string      `yaml:"password" toml:"password" json:"password"`
	PasswordHint          string      `yaml:"passwordHint" toml:"passwordHint" json:"passwordHint"`
	Collection            string      `yaml:"collection" toml:"collection" json:"collection"`
	CollectionOrder       *int        `yaml:"collection_order" toml:"collection_order" json:"collection_order"`
	CollectionDescription string      `yaml:"collection_description" toml:"collection_description" json:"collection_description"`
}

type Tag struct {
	Label     string `json:"label"`
	Permalink string `json:"permalink"`
	Count     int    `json:"count,omitempty"`
}

// Post is a loaded blog article. HTML and Source are withheld from listings.
type Post struct {
	Path                  string    `json:"path"`
	Title                 string    `json:"title"`
	Permalink             string    `json:"permalink"`
	Description           string    `json:"description"`
	Date                  time.Time `json:"-"`
	DateString            string    `json:"date"`
	Tags                  []Tag     `json:"tags"`
	Authors               []string  `json:"authors,omitempty"`
	Image                 string    `json:"image,omitempty"`
	Sticky                int       `json:"sticky,omitempty"`
	Featured              bool      `json:"featured,omitempty"`
	Pinned                bool      `json:"pinned,omitempty"`
	Private               bool      `json:"private,omitempty"`
	PasswordHint          string    `json:"passwordHint,omitempty"`
	Collection            string    `json:"collection,omitempty"`
	CollectionOrder       int       `json:"collectionOrder"`
	HasCollectionOrder    bool      `json:"-"`
	CollectionDescription string    `json:"collectionDescription,omitempty"`
	Summary               string    `json:"summary,omitempty"`
	ReadingTime           int       `json:"readingTime"`
	HTML                  string    `json:"html,omitempty"`
	Source                string    `json:"-"`
	Password              string    `json:"-"`
}

// Preview returns a copy without rendered content, safe to list publicly.
func (p Post) Preview() Post {
	p.HTML = ""
	if p.Private {
		p.Summary = ""
	}
	return p
}

type Collection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
	Slug        string `json:"slug"`
	EncodedSlug string `json:"encodedSlug"`
	Image       string `json:"image"`
	Posts       []Post `json:"posts"`
}

// LoadError describes a content file that could not be turned into a post.
type LoadError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}
