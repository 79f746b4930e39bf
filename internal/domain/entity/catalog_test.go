package entity_test

import (
	"errors"
	"testing"

	"newshub/internal/domain/entity"
)

func testCatalog() entity.Catalog {
	return entity.Catalog{
		Categories: []string{"business", "technology"},
		Locations:  []string{"us", "gb"},
	}
}

func TestCatalog_ValidateQuery(t *testing.T) {
	tests := []struct {
		name     string
		category string
		location string
		wantErr  error
	}{
		{name: "known pair", category: "business", location: "us"},
		{name: "case-insensitive", category: "Technology", location: "GB"},
		{name: "empty location allowed", category: "business"},
		{name: "unknown category", category: "cooking", location: "us", wantErr: entity.ErrUnknownCategory},
		{name: "empty category", category: "", wantErr: entity.ErrUnknownCategory},
		{name: "unknown location", category: "business", location: "mars", wantErr: entity.ErrUnknownLocation},
	}

	c := testCatalog()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.ValidateQuery(tt.category, tt.location)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateQuery() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateQuery() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, entity.ErrValidationFailed) {
				t.Errorf("ValidateQuery() error = %v, want it to match ErrValidationFailed", err)
			}
		})
	}
}

func TestSourceError(t *testing.T) {
	cause := errors.New("connection reset")
	err := entity.NewSourceError("newsapi", entity.CodeNoResponse, "no response", true, cause)

	if got, want := err.Error(), "newsapi: no response (NO_RESPONSE)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got := entity.HTTPStatusCode(503); got != "HTTP_503" {
		t.Errorf("HTTPStatusCode(503) = %q, want HTTP_503", got)
	}
}
