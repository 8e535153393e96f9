package entity

import (
	"strings"
	"time"
)

// DatePrecision is the granularity the catalog reported a release date with.
type DatePrecision string

const (
	PrecisionDay   DatePrecision = "day"
	PrecisionMonth DatePrecision = "month"
	PrecisionYear  DatePrecision = "year"
)

// ReleaseDate is a parsed catalog date. Missing parts are filled with the first
// day or month of the period, so "2024" is 2024-01-01.
type ReleaseDate struct {
	Time      time.Time
	Precision DatePrecision
}

// Layouts are tried from most to least specific.
var releaseDateLayouts = []struct {
	layout    string
	precision DatePrecision
}{
	{"2006-01-02", PrecisionDay},
	{"2006-01", PrecisionMonth},
	{"2006", PrecisionYear},
}

// ParseReleaseDate parses "YYYY-MM-DD", "YYYY-MM" or "YYYY" in UTC.
// It reports false for empty or malformed input.
func ParseReleaseDate(raw string) (ReleaseDate, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ReleaseDate{}, false
	}
	for _, l := range releaseDateLayouts {
		if len(raw) != len(l.layout) {
			continue
		}
		if t, err := time.Parse(l.layout, raw); err == nil {
			return ReleaseDate{Time: t, Precision: l.precision}, true
		}
	}
	return ReleaseDate{}, false
}

// String renders the date at its own precision.
func (d ReleaseDate) String() string {
	switch d.Precision {
	case PrecisionYear:
		return d.Time.Format("2006")
	case PrecisionMonth:
		return d.Time.Format("January 2006")
	default:
		return d.Time.Format("2 January 2006")
	}
}

// Release is an album or single published by a followed artist.
type Release struct {
	ID          string
	Title       string
	ArtistID    string
	ArtistNames []string
	// AlbumType is "album" or "single".
	AlbumType   string
	ReleaseDate string
	ImageURL    string
	URL         string

	// Released is set once ReleaseDate has been parsed.
	Released ReleaseDate
}

// Validate checks the fields needed to deliver and deduplicate a release.
func (r *Release) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	return nil
}

// Artists joins the credited artist names.
func (r *Release) Artists() string {
	return strings.Join(r.ArtistNames, ", ")
}

// Kind returns a display label for the album type.
func (r *Release) Kind() string {
	switch r.AlbumType {
	case "single":
		return "Single"
	case "compilation":
		return "Compilation"
	default:
		return "Album"
	}
}
