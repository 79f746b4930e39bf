// Package config loads the aggregator's configuration: the YAML file describing the
// category/location catalog and the news providers, plus environment overrides for
// timeouts and resilience settings.
//
// The file path comes from NEWSHUB_CONFIG (default config/providers.yaml). ${VAR}
// references in the file are expanded from the environment before parsing, so API
// keys stay out of the file itself.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"newshub/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure of a loaded file.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultConfigPath is used when NEWSHUB_CONFIG is not set.
const DefaultConfigPath = "config/providers.yaml"

// Provider types understood by the provider factory.
const (
	TypeNewsAPI  = "newsapi"
	TypeGNews    = "gnews"
	TypeGuardian = "guardian"
	TypeRSS      = "rss"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// File is the parsed configuration file.
type File struct {
	Catalog   entity.Catalog   `yaml:"catalog"`
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig describes one news provider entry.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Enabled *bool  `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// FeedURL is the RSS URL template; {category} and {location} are substituted.
	FeedURL  string        `yaml:"feed_url"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
	// RateLimit is in requests per second; 0 disables limiting.
	RateLimit   float64           `yaml:"rate_limit"`
	Burst       int               `yaml:"burst"`
	CategoryMap map[string]string `yaml:"category_map"`
	LocationMap map[string]string `yaml:"location_map"`
}

// IsEnabled reports whether the entry takes part in aggregation; omitted means enabled.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// EnabledProviders returns the enabled entries in file order.
func (f *File) EnabledProviders() []ProviderConfig {
	out := make([]ProviderConfig, 0, len(f.Providers))
	for _, p := range f.Providers {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}

// Path returns the configuration file path from NEWSHUB_CONFIG or the default.
func Path() string {
	return GetEnvString("NEWSHUB_CONFIG", DefaultConfigPath)
}

// Load reads, expands, parses and validates the file at path.
func Load(path string) (*File, error) {
	// #nosec G304 -- path comes from the operator (env or flag), not from requests
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references in data, then decodes and validates it.
func Parse(data []byte) (*File, error) {
	expanded := os.ExpandEnv(string(data))

	var f File
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidConfig, err)
	}

	f.sanitize()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) sanitize() {
	f.Catalog.Categories = normalizeIDs(f.Catalog.Categories)
	f.Catalog.Locations = normalizeIDs(f.Catalog.Locations)

	for i := range f.Providers {
		p := &f.Providers[i]
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
		p.APIKey = strings.TrimSpace(p.APIKey)
		p.FeedURL = strings.TrimSpace(p.FeedURL)
		if p.PageSize <= 0 {
			p.PageSize = DefaultPageSize
		}
		if p.PageSize > MaxPageSize {
			p.PageSize = MaxPageSize
		}
	}
}

// Validate checks the file and reports every problem at once.
func (f *File) Validate() error {
	var errs []error

	if len(f.Catalog.Categories) == 0 {
		errs = append(errs, errors.New("catalog.categories must not be empty"))
	}

	seen := make(map[string]bool, len(f.Providers))
	for i, p := range f.Providers {
		label := p.Name
		if label == "" {
			label = fmt.Sprintf("providers[%d]", i)
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		} else if seen[p.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate provider name", label))
		}
		seen[p.Name] = true

		switch p.Type {
		case TypeNewsAPI, TypeGNews, TypeGuardian:
			if p.BaseURL == "" {
				errs = append(errs, fmt.Errorf("%s: base_url is required for type %s", label, p.Type))
			}
			if p.IsEnabled() && p.APIKey == "" {
				errs = append(errs, fmt.Errorf("%s: api_key is required for type %s", label, p.Type))
			}
		case TypeRSS:
			if p.FeedURL == "" {
				errs = append(errs, fmt.Errorf("%s: feed_url is required for type rss", label))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: unknown type %q", label, p.Type))
		}

		if p.Timeout < 0 {
			errs = append(errs, fmt.Errorf("%s: timeout must not be negative", label))
		}
		if p.RateLimit < 0 {
			errs = append(errs, fmt.Errorf("%s: rate_limit must not be negative", label))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
