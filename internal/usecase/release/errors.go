// Package release implements a scan run: it refreshes the catalog token,
// lists followed artists, collects their recent releases through the recency
// cache and delivers every release not yet sent to the recipient.
package release

import "errors"

// Sentinel errors for release use case operations.
var (
	// ErrRunInProgress indicates that the recipient already has a scan running.
	ErrRunInProgress = errors.New("scan already in progress for recipient")

	// ErrInvalidWindow indicates a recency window outside the accepted range.
	ErrInvalidWindow = errors.New("invalid recency window")

	// ErrRunnerClosed indicates that Start was called after Shutdown.
	ErrRunnerClosed = errors.New("runner is shut down")
)
