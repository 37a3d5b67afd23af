package feed

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFeeds is used when no feed list file exists.
var DefaultFeeds = []Feed{
	{Name: "Udacity Blog", URL: "http://blog.udacity.com/feed"},
	{Name: "CSS Tricks", URL: "http://feeds.feedburner.com/CssTricks"},
	{Name: "HTML5 Rocks", URL: "http://feeds.feedburner.com/html5rocks"},
	{Name: "Linear Digressions", URL: "http://feeds.feedburner.com/udacity-linear-digressions"},
}

var DefaultSchemes = []string{"http", "https"}

var validFilterFields = map[string]bool{
	"title":       true,
	"description": true,
	"content":     true,
	"authors":     true,
	"link":        true,
	"categories":  true,
}

// Catalog is the ordered feed list. It is fixed once created.
type Catalog struct {
	feeds []Feed
}

type catalogFile struct {
	Feeds []Feed `yaml:"feeds"`
}

func NewCatalog(feeds []Feed, schemes []string) (*Catalog, error) {
	if len(feeds) == 0 {
		return nil, ErrEmptyCatalog
	}
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}

	copied := make([]Feed, 0, len(feeds))
	for i, f := range feeds {
		f.Name = strings.TrimSpace(f.Name)
		f.URL = strings.TrimSpace(f.URL)
		if err := validateFeed(f, schemes); err != nil {
			return nil, fmt.Errorf("invalid feed at index %d: %w", i, err)
		}
		f.Filters = slices.Clone(f.Filters)
		copied = append(copied, f)
	}

	return &Catalog{feeds: copied}, nil
}

// LoadCatalog reads the feed list from a YAML file, falling back to
// DefaultFeeds when the file does not exist.
func LoadCatalog(path string, schemes []string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("Feed list file not found, using built-in feeds", "path", path, "count", len(DefaultFeeds))
		return NewCatalog(DefaultFeeds, schemes)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	catalog, err := NewCatalog(file.Feeds, schemes)
	if err != nil {
		return nil, fmt.Errorf("invalid feed list %s: %w", path, err)
	}

	for i, f := range catalog.feeds {
		slog.Debug("Feed registered", "index", i, "feed", f.Name, "url", f.URL, "filters", len(f.Filters))
	}

	return catalog, nil
}

func (c *Catalog) Len() int {
	return len(c.feeds)
}

func (c *Catalog) At(index int) (Feed, error) {
	if index < 0 || index >= len(c.feeds) {
		return Feed{}, fmt.Errorf("%w: %d (feed list has %d entries)", ErrInvalidIndex, index, len(c.feeds))
	}
	return c.feeds[index], nil
}

func (c *Catalog) Feeds() []Feed {
	return slices.Clone(c.feeds)
}

// ValidURL reports whether raw is an absolute URL with a host and one of the
// given schemes.
func ValidURL(raw string, schemes []string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Opaque != "" || u.Host == "" || u.Hostname() == "" {
		return false
	}
	return slices.Contains(schemes, strings.ToLower(u.Scheme))
}

func validateFeed(f Feed, schemes []string) error {
	requiredFeedFields := map[string]string{
		"feed name": f.Name,
		"feed URL":  f.URL,
	}
	for fieldName, fieldValue := range requiredFeedFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if !ValidURL(f.URL, schemes) {
		return fmt.Errorf("feed URL %q is not a valid %s URL", f.URL, strings.Join(schemes, "/"))
	}

	for i, filter := range f.Filters {
		if !validFilterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
