package models

type NavItem struct {
	Label    string    `mapstructure:"label" json:"label"`
	To       string    `mapstructure:"to" json:"to,omitempty"`
	Href     string    `mapstructure:"href" json:"href,omitempty"`
	Position string    `mapstructure:"position" json:"position,omitempty"`
	Items    []NavItem `mapstructure:"items" json:"items,omitempty"`
}

type Project struct {
	Title       string   `mapstructure:"title" json:"title"`
	Description string   `mapstructure:"description" json:"description"`
	Preview     string   `mapstructure:"preview" json:"preview,omitempty"`
	Website     string   `mapstructure:"website" json:"website"`
	Source      string   `mapstructure:"source" json:"source,omitempty"`
	Tags        []string `mapstructure:"tags" json:"tags"`
	Type        string   `mapstructure:"type" json:"type"`
}

type Friend struct {
	Title       string            `mapstructure:"title" json:"title"`
	Description string            `mapstructure:"description" json:"description"`
	Website     string            `mapstructure:"website" json:"website"`
	Avatar      string            `mapstructure:"avatar" json:"avatar,omitempty"`
	Tags        []string          `mapstructure:"tags" json:"tags,omitempty"`
	SocialLinks map[string]string `mapstructure:"social_links" json:"socialLinks,omitempty"`
	Category    string            `mapstructure:"category" json:"category,omitempty"`
}

// CollectionMeta carries the cover image and long description of a collection.
type CollectionMeta struct {
	ID          string `mapstructure:"id" json:"id"`
	Name        string `mapstructure:"name" json:"name,omitempty"`
	Description string `mapstructure:"description" json:"description"`
	Image       string `mapstructure:"image" json:"image"`
}

type SiteData struct {
	Title                        string           `mapstructure:"title" json:"title"`
	Tagline                      string           `mapstructure:"tagline" json:"tagline,omitempty"`
	Navbar                       []NavItem        `mapstructure:"navbar" json:"navbar"`
	Projects                     []Project        `mapstructure:"projects" json:"projects"`
	Friends                      []Friend         `mapstructure:"friends" json:"friends"`
	Collections                  []CollectionMeta `mapstructure:"collections" json:"collections"`
	DefaultCollectionImage       string           `mapstructure:"default_collection_image" json:"defaultCollectionImage"`
	DefaultCollectionDescription string           `mapstructure:"default_collection_description" json:"defaultCollectionDescription"`
}

func (s *SiteData) CollectionMeta(id string) (CollectionMeta, bool) {
	if s == nil {
		return CollectionMeta{}, false
	}
	for _, c := range s.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return CollectionMeta{}, false
}
