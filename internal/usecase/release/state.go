package release

// RunState is the phase a recipient's scan is in.
type RunState int

const (
	StateIdle RunState = iota
	StateRefreshingToken
	StateEnumeratingArtists
	StateFetchingReleases
	StateNotifying
	StateDone
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshingToken:
		return "refreshing_token"
	case StateEnumeratingArtists:
		return "enumerating_artists"
	case StateFetchingReleases:
		return "fetching_releases"
	case StateNotifying:
		return "notifying"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Running reports whether s is an in-flight phase.
func (s RunState) Running() bool {
	return s > StateIdle && s < StateDone
}
