package entity

import (
	"fmt"
	"time"
)

// DaysPerMonth is the fixed month length used to turn a window into a cutoff.
// Calendar months are deliberately not used.
const DaysPerMonth = 30

// MaxWindowMonths bounds how far back a scan may look.
const MaxWindowMonths = 24

// RecencyWindow is a look-back period expressed in months.
type RecencyWindow int

// Duration returns the window length as months times DaysPerMonth days.
func (w RecencyWindow) Duration() time.Duration {
	return time.Duration(w) * DaysPerMonth * 24 * time.Hour
}

// Cutoff returns the instant a release must be strictly after to count as recent.
func (w RecencyWindow) Cutoff(now time.Time) time.Time {
	return now.Add(-w.Duration())
}

// Validate rejects non-positive or overly long windows.
func (w RecencyWindow) Validate() error {
	if w < 1 || w > MaxWindowMonths {
		return &ValidationError{
			Field:   "months",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxWindowMonths, int(w)),
		}
	}
	return nil
}
