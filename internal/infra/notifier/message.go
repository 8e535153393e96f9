package notifier

import (
	"fmt"
	"html"
	"strings"

	"release-radar/internal/domain/entity"
	"release-radar/internal/utils/text"
)

const (
	maxTitleRunes   = 200
	maxArtistsRunes = 300
	ellipsis        = "…"
)

// displayDate prefers the parsed date so partial dates render at their precision.
func displayDate(r *entity.Release) string {
	if !r.Released.Time.IsZero() {
		return r.Released.String()
	}
	return r.ReleaseDate
}

// FormatReleaseHTML renders a release for Telegram's HTML parse mode.
func FormatReleaseHTML(r *entity.Release) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎵 <b>%s</b>\n", html.EscapeString(text.Truncate(r.Title, maxTitleRunes, ellipsis)))
	if artists := r.Artists(); artists != "" {
		fmt.Fprintf(&b, "👤 %s\n", html.EscapeString(text.Truncate(artists, maxArtistsRunes, ellipsis)))
	}
	fmt.Fprintf(&b, "📅 %s · %s", html.EscapeString(displayDate(r)), r.Kind())
	return b.String()
}

// releaseKeyboard links to the release page, or returns nil without a URL.
func releaseKeyboard(r *entity.Release) *InlineKeyboardMarkup {
	if r.URL == "" {
		return nil
	}
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{
			{Text: "Open in Spotify", URL: r.URL},
		}},
	}
}
