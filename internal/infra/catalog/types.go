package catalog

import "release-radar/internal/domain/entity"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type followingResponse struct {
	Artists struct {
		Items   []artistObject `json:"items"`
		Next    *string        `json:"next"`
		Cursors struct {
			After *string `json:"after"`
		} `json:"cursors"`
	} `json:"artists"`
}

type artistObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type albumsPage struct {
	Items []albumObject `json:"items"`
	Next  *string       `json:"next"`
}

type albumObject struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	AlbumType            string         `json:"album_type"`
	ReleaseDate          string         `json:"release_date"`
	ReleaseDatePrecision string         `json:"release_date_precision"`
	Artists              []artistObject `json:"artists"`
	Images               []imageObject  `json:"images"`
	ExternalURLs         struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type imageObject struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// toRelease keeps the fields delivery needs. Spotify lists images largest
// first, so the first one is used as cover art.
func (a albumObject) toRelease(artistID string) entity.Release {
	names := make([]string, 0, len(a.Artists))
	for _, ar := range a.Artists {
		names = append(names, ar.Name)
	}
	r := entity.Release{
		ID:          a.ID,
		Title:       a.Name,
		ArtistID:    artistID,
		ArtistNames: names,
		AlbumType:   a.AlbumType,
		ReleaseDate: a.ReleaseDate,
		URL:         a.ExternalURLs.Spotify,
	}
	if len(a.Images) > 0 {
		r.ImageURL = a.Images[0].URL
	}
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
