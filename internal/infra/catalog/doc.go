// Package catalog talks to the Spotify Web API: it exchanges the long-lived
// refresh token for an access token and pages through followed artists and
// their releases.
//
// Every request waits on a shared pacing limiter. The followed-artists
// listing goes through the catalog-following circuit breaker; release pages
// do not, so one artist's failures never block another. HTTP 429 responses
// are retried after the server's Retry-After delay for as long as the
// context allows.
package catalog
