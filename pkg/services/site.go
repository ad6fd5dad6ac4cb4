package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"blog-server/pkg/models"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoadSiteData reads navbar, projects, friends and collection metadata from a
// YAML (or any viper-supported) file. A missing file yields empty data.
func LoadSiteData(path string) (*models.SiteData, error) {
	site := &models.SiteData{}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			log.Printf("site data missing path=%s", path)
			return site, nil
		}
		return nil, fmt.Errorf("read site data %s: %w", path, err)
	}

	if err := v.Unmarshal(site); err != nil {
		return nil, fmt.Errorf("decode site data %s: %w", path, err)
	}
	if err := restoreSocialLinkKeys(path, site); err != nil {
		return nil, fmt.Errorf("decode social links %s: %w", path, err)
	}
	return site, nil
}

// restoreSocialLinkKeys re-reads friends[].social_links with the file's own
// decoder. viper lower-cases map keys, which turns "GitHub" into "github".
func restoreSocialLinkKeys(path string, site *models.SiteData) error {
	var raw struct {
		Friends []struct {
			SocialLinks map[string]string `yaml:"social_links" toml:"social_links" json:"social_links"`
		} `yaml:"friends" toml:"friends" json:"friends"`
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	for i := range site.Friends {
		if i < len(raw.Friends) && raw.Friends[i].SocialLinks != nil {
			site.Friends[i].SocialLinks = raw.Friends[i].SocialLinks
		}
	}
	return nil
}

// FilterProjects keeps projects with the tag and type; empty filters match all.
func FilterProjects(projects []models.Project, tag, projectType string) []models.Project {
	out := []models.Project{}
	for _, p := range projects {
		if projectType != "" && p.Type != projectType {
			continue
		}
		if tag != "" && !containsString(p.Tags, tag) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterFriends keeps friends in the category; an empty category matches all.
func FilterFriends(friends []models.Friend, category string) []models.Friend {
	out := []models.Friend{}
	for _, f := range friends {
		if category != "" && f.Category != category {
			continue
		}
		out = append(out, f)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
