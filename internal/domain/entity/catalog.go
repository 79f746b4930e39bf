package entity

import (
	"fmt"
	"strings"
)

// Catalog holds the closed sets of category and location identifiers a query may use.
// It is static configuration; nothing in the aggregator computes it.
type Catalog struct {
	Categories []string `yaml:"categories" json:"categories"`
	Locations  []string `yaml:"locations" json:"locations"`
}

// HasCategory reports whether id names a catalog category (case-insensitive).
func (c Catalog) HasCategory(id string) bool {
	return contains(c.Categories, id)
}

// HasLocation reports whether id names a catalog location (case-insensitive).
func (c Catalog) HasLocation(id string) bool {
	return contains(c.Locations, id)
}

// ValidateQuery checks a category/location pair against the catalog.
// The location is optional; an empty location means "no location filter".
func (c Catalog) ValidateQuery(category, location string) error {
	if !c.HasCategory(category) {
		return &ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("unknown category %q", category),
			Err:     ErrUnknownCategory,
		}
	}
	if location != "" && !c.HasLocation(location) {
		return &ValidationError{
			Field:   "location",
			Message: fmt.Sprintf("unknown location %q", location),
			Err:     ErrUnknownLocation,
		}
	}
	return nil
}

func contains(ids []string, id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	for _, known := range ids {
		if strings.EqualFold(known, id) {
			return true
		}
	}
	return false
}
