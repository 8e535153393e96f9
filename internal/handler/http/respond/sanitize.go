package respond

import (
	"regexp"
)

var (
	// Telegram embeds the bot token in the request path: /bot<id>:<secret>/sendMessage
	botTokenPattern = regexp.MustCompile(`bot(\d+):[A-Za-z0-9_-]+`)

	bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]+`)

	// OAuth form fields as they appear in echoed request bodies
	oauthFieldPattern = regexp.MustCompile(`(refresh_token|access_token|client_secret)=[^&\s"]+`)

	// DSN password, including redis://:password@host
	dsnPasswordPattern = regexp.MustCompile(`://([^:/@\s]*):([^@\s]+)@`)
)

// SanitizeError returns err's message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks bot tokens, bearer tokens, OAuth secrets and DSN
// passwords in s.
func SanitizeString(s string) string {
	s = botTokenPattern.ReplaceAllString(s, "bot$1:****")
	s = bearerPattern.ReplaceAllString(s, "${1}****")
	s = oauthFieldPattern.ReplaceAllString(s, "$1=****")
	s = dsnPasswordPattern.ReplaceAllString(s, "://$1:****@")
	return s
}
