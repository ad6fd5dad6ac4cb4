package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blog-server/pkg/models"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ParseFrontMatter splits a content file into its front matter map, body and format.
func ParseFrontMatter(content []byte) (map[string]interface{}, string, string, error) {
	str := normalizeLineEndings(string(content))
	// Check for YAML (---)
	if strings.HasPrefix(str, "---\n") {
		parts := strings.SplitN(str, "---", 3) // "", FM, Body
		if len(parts) == 3 {
			var fm map[string]interface{}
			if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
				return nil, "", "", fmt.Errorf("yaml front matter: %w", err)
			}
			return fm, strings.TrimSpace(parts[2]), "yaml", nil
		}
	}
	// Check for TOML (+++)
	if strings.HasPrefix(str, "+++\n") {
		parts := strings.SplitN(str, "+++", 3)
		if len(parts) == 3 {
			var fm map[string]interface{}
			if err := toml.Unmarshal([]byte(parts[1]), &fm); err != nil {
				return nil, "", "", fmt.Errorf("toml front matter: %w", err)
			}
			return fm, strings.TrimSpace(parts[2]), "toml", nil
		}
	}
	// Check for JSON ({)
	if strings.HasPrefix(strings.TrimSpace(str), "{") {
		dec := json.NewDecoder(strings.NewReader(str))
		var fm map[string]interface{}
		if err := dec.Decode(&fm); err == nil {
			rest := str[dec.InputOffset():]
			return fm, strings.TrimSpace(rest), "json", nil
		}
	}

	// Plain Markdown
	return map[string]interface{}{}, strings.TrimSpace(str), "none", nil
}

// DecodeFrontMatter maps a parsed front matter map onto the typed post fields.
func DecodeFrontMatter(fm map[string]interface{}) (models.FrontMatter, error) {
	var out models.FrontMatter
	raw, err := json.Marshal(canonicalizeFrontMatterForJSON(fm))
	if err != nil {
		return out, fmt.Errorf("encode front matter: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode front matter: %w", err)
	}
	return out, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate accepts the date shapes that show up in front matter.
func ParseDate(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// NormalizeTags accepts `tags: [a, b]` as well as `tags: [{label: a, permalink: /x}]`.
func NormalizeTags(value interface{}) []models.Tag {
	var tags []models.Tag
	appendLabel := func(label, permalink string) {
		label = strings.TrimSpace(label)
		if label == "" {
			return
		}
		if permalink == "" {
			permalink = TagPermalink(label)
		}
		tags = append(tags, models.Tag{Label: label, Permalink: permalink})
	}

	switch v := value.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			appendLabel(part, "")
		}
	case []interface{}:
		for _, item := range v {
			switch tag := item.(type) {
			case map[string]interface{}:
				label, _ := scalarString(tag["label"])
				permalink, _ := tag["permalink"].(string)
				appendLabel(label, permalink)
			default:
				if label, ok := scalarString(tag); ok {
					appendLabel(label, "")
				}
			}
		}
	}
	return tags
}

func normalizeStringList(value interface{}) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []interface{}:
		var out []string
		for _, item := range v {
			if s, ok := scalarString(item); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// textFields are the front matter keys decoded into string fields. YAML and TOML
// read `password: 654321` or `title: 2024` as numbers, so those are stringified.
var textFields = map[string]bool{
	"title":                  true,
	"description":            true,
	"slug":                   true,
	"image":                  true,
	"password":               true,
	"passwordHint":           true,
	"collection":             true,
	"collection_description": true,
}

func canonicalizeFrontMatterForJSON(fm map[string]interface{}) map[string]interface{} {
	if fm == nil {
		return nil
	}
	canonical := make(map[string]interface{}, len(fm))
	for k, v := range fm {
		v = canonicalizeValueForJSON(v)
		if textFields[k] {
			if s, ok := scalarString(v); ok {
				v = s
			}
		}
		canonical[k] = v
	}
	return canonical
}

// scalarString renders a string, number or bool front matter value as text.
func scalarString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func canonicalizeValueForJSON(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		canonical := make(map[string]interface{}, len(v))
		for key, inner := range v {
			canonical[key] = canonicalizeValueForJSON(inner)
		}
		return canonical
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[fmt.Sprint(key)] = canonicalizeValueForJSON(inner)
		}
		return normalized
	case []interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = canonicalizeValueForJSON(v[i])
		}
		return slice
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case toml.LocalDate:
		return v.String()
	case toml.LocalDateTime:
		return v.String()
	default:
		return v
	}
}

func normalizeLineEndings(input string) string {
	return strings.ReplaceAll(input, "\r\n", "\n")
}
