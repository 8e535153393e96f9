package release

import (
	"cmp"
	"slices"
	"time"

	"release-radar/internal/domain/entity"
)

// FilterRecent keeps the releases dated strictly after window.Cutoff(now).
// Releases whose date cannot be parsed are dropped. The result carries the
// parsed date in Released and is ordered oldest first, ties broken by ID.
func FilterRecent(releases []entity.Release, window entity.RecencyWindow, now time.Time) []entity.Release {
	cutoff := window.Cutoff(now)

	recent := make([]entity.Release, 0, len(releases))
	for _, r := range releases {
		d, ok := entity.ParseReleaseDate(r.ReleaseDate)
		if !ok {
			continue
		}
		if !d.Time.After(cutoff) {
			continue
		}
		r.Released = d
		recent = append(recent, r)
	}

	slices.SortStableFunc(recent, func(a, b entity.Release) int {
		if c := a.Released.Time.Compare(b.Released.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return recent
}
