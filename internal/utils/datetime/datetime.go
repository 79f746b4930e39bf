// Package datetime parses, validates and formats article timestamps.
package datetime

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
)

// ErrInvalidDate is returned when a timestamp cannot be parsed strictly.
var ErrInvalidDate = errors.New("invalid date")

const (
	// futureSkew tolerates publishers whose clocks run slightly ahead.
	futureSkew = 24 * time.Hour

	relativeCutoff = 30 * 24 * time.Hour
	longDateLayout = "January 2, 2006"
	dateLayout     = "2006-01-02"
)

var minDate = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	// dateparse reads bare numbers as years or Unix timestamps.
	allDigits = regexp.MustCompile(`^\d+$`)
	// Input shaped like RFC 3339 must be RFC 3339; dateparse accepts truncations.
	isoDateTimePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[Tt]`)
	isoPartialDate    = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// isoLayouts are tried before dateparse. Zone-less date-times are read as UTC.
var isoLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"}

// ParseTimestamp parses RFC 3339 first, then falls back to dateparse in strict
// mode for the looser formats feeds publish (RFC 1123, "2006-01-02 15:04:05", ...).
// Ambiguous day/month orderings, bare numbers and truncated RFC 3339 are rejected.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	if allDigits.MatchString(raw) || isoDateTimePrefix.MatchString(raw) || isoPartialDate.MatchString(raw) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	t, err := dateparse.ParseStrict(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, raw, err)
	}
	return t.UTC(), nil
}

// InRange reports whether t lies between the Unix epoch and one day after now.
func InRange(t, now time.Time) bool {
	if t.Before(minDate) {
		return false
	}
	return !t.After(now.Add(futureSkew))
}

// IsValidDate reports whether raw parses strictly and lies in the accepted range.
func IsValidDate(raw string) bool {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return false
	}
	return InRange(t, time.Now())
}

// FormatDate renders t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// FormatDateString parses raw and renders it as YYYY-MM-DD, or "" when raw is invalid.
func FormatDateString(raw string) string {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return ""
	}
	return FormatDate(t)
}

// RelativeTime renders raw relative to now ("just now", "2 hours ago").
// Timestamps older than 30 days are rendered as a long-form date instead.
// Input that does not parse is returned unchanged.
func RelativeTime(raw string, now time.Time) string {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return raw
	}

	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff > relativeCutoff:
		return t.Format(longDateLayout)
	default:
		return humanize.RelTime(t, now, "ago", "from now")
	}
}

// SortKey is the ordering key used when merging articles, newest first.
func SortKey(t time.Time) int64 {
	return t.UnixNano()
}
