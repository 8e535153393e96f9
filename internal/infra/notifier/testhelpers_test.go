package notifier

import (
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/resilience/retry"
)

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	}
}

func sampleRelease() *entity.Release {
	released, _ := entity.ParseReleaseDate("2025-11-14")
	return &entity.Release{
		ID:          "album-1",
		Title:       "Night Drive",
		ArtistID:    "artist-1",
		ArtistNames: []string{"The Midnight", "Guest & Co"},
		AlbumType:   "album",
		ReleaseDate: "2025-11-14",
		ImageURL:    "https://i.scdn.co/image/cover",
		URL:         "https://open.spotify.com/album/album-1",
		Released:    released,
	}
}
