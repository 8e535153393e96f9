package catalog

import "time"

const (
	DefaultAccountsBaseURL   = "https://accounts.spotify.com"
	DefaultAPIBaseURL        = "https://api.spotify.com"
	DefaultRequestDelay      = 220 * time.Millisecond
	DefaultRetryAfter        = time.Second
	DefaultTimeout           = 15 * time.Second
	pageLimit                = "50"
	maxErrorBodyBytes        = 2048
	releaseGroups            = "album,single"
	tokenExpiryWithoutExpiry = time.Hour
)

// Config configures the token refresher and the catalog client.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string

	AccountsBaseURL string
	APIBaseURL      string

	// RequestDelay is the minimum spacing between catalog requests.
	RequestDelay time.Duration
	// DefaultRetryAfter is used when a 429 carries no usable Retry-After.
	DefaultRetryAfter time.Duration
	Timeout           time.Duration
}

func (c Config) withDefaults() Config {
	if c.AccountsBaseURL == "" {
		c.AccountsBaseURL = DefaultAccountsBaseURL
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.RequestDelay < 0 {
		c.RequestDelay = 0
	}
	if c.DefaultRetryAfter <= 0 {
		c.DefaultRetryAfter = DefaultRetryAfter
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
