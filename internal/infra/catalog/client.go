package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/observability/metrics"
	"release-radar/internal/observability/tracing"
	"release-radar/internal/resilience/circuitbreaker"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

const (
	endpointFollowing = "following"
	endpointAlbums    = "albums"
)

// Client pages through the catalog. It is safe for concurrent use; all
// callers share one pacing limiter.
//
// Only the followed-artists listing goes through a circuit breaker. Release
// pages are per artist and their failures stay with that artist.
type Client struct {
	http      *resty.Client
	cfg       Config
	limiter   *rate.Limiter
	following *circuitbreaker.CircuitBreaker
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewClient creates a catalog client from cfg.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()

	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}

	cbConfig := circuitbreaker.CatalogAPIConfig()
	cbConfig.IsSuccessful = breakerNeutral

	return &Client{
		http:      resty.New().SetTimeout(cfg.Timeout),
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, 1),
		following: circuitbreaker.New(cbConfig),
		sleep:     sleepContext,
	}
}

// FollowedArtists returns every artist the token's user follows, walking
// the "after" cursor until it is empty. On error no partial list is returned.
func (c *Client) FollowedArtists(ctx context.Context, token *entity.Token) (_ []entity.Artist, err error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.followed_artists")
	defer func() { tracing.EndSpan(span, err) }()

	base := strings.TrimRight(c.cfg.APIBaseURL, "/") + "/v1/me/following"
	var artists []entity.Artist
	after := ""
	for {
		q := url.Values{"type": {"artist"}, "limit": {pageLimit}}
		if after != "" {
			q.Set("after", after)
		}

		var page followingResponse
		if err := c.get(ctx, token, c.following, endpointFollowing, base+"?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		for _, a := range page.Artists.Items {
			artists = append(artists, entity.Artist{ID: a.ID, Name: a.Name})
		}

		after = deref(page.Artists.Cursors.After)
		if after == "" {
			break
		}
	}

	span.SetAttributes(attribute.Int("artists", len(artists)))
	return artists, nil
}

// ArtistReleases returns all albums and singles of artistID, following the
// "next" link of each page. On error no partial list is returned.
func (c *Client) ArtistReleases(ctx context.Context, token *entity.Token, artistID string) (_ []entity.Release, err error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.artist_releases", attribute.String("artist_id", artistID))
	defer func() { tracing.EndSpan(span, err) }()

	q := url.Values{"include_groups": {releaseGroups}, "limit": {pageLimit}}
	next := fmt.Sprintf("%s/v1/artists/%s/albums?%s",
		strings.TrimRight(c.cfg.APIBaseURL, "/"), url.PathEscape(artistID), q.Encode())

	var releases []entity.Release
	for next != "" {
		var page albumsPage
		if err := c.get(ctx, token, nil, endpointAlbums, next, &page); err != nil {
			return nil, err
		}
		for _, a := range page.Items {
			releases = append(releases, a.toRelease(artistID))
		}
		next = deref(page.Next)
	}

	span.SetAttributes(attribute.Int("releases", len(releases)))
	return releases, nil
}

// get fetches one page into out. It waits on the pacing limiter before every
// attempt and retries 429 responses after their Retry-After delay. A nil
// breaker sends the request directly.
func (c *Client) get(ctx context.Context, token *entity.Token, breaker *circuitbreaker.CircuitBreaker, endpoint, rawURL string, out any) error {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		result, err := execute(breaker, func() (any, error) {
			resp, err := c.http.R().
				SetContext(ctx).
				SetAuthToken(token.AccessToken).
				SetHeader("Accept", "application/json").
				Get(rawURL)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode() >= http.StatusInternalServerError {
				return resp, upstreamError(endpoint, resp)
			}
			return resp, nil
		})
		if err != nil {
			var ue *entity.UpstreamError
			if errors.As(err, &ue) {
				metrics.RecordCatalogRequest(endpoint, ue.StatusCode, time.Since(start))
				return err
			}
			metrics.RecordCatalogRequest(endpoint, 0, time.Since(start))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %s: %w", entity.ErrUpstreamFetch, endpoint, err)
		}

		resp := result.(*resty.Response)
		metrics.RecordCatalogRequest(endpoint, resp.StatusCode(), time.Since(start))

		switch {
		case resp.StatusCode() == http.StatusTooManyRequests:
			wait := c.retryAfter(resp.Header().Get("Retry-After"))
			metrics.RecordCatalogRateLimited(endpoint, wait)
			slog.Warn("Catalog rate limited",
				slog.String("endpoint", endpoint),
				slog.Duration("retry_after", wait))
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		case resp.StatusCode() != http.StatusOK:
			return upstreamError(endpoint, resp)
		}

		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("%w: %s: decode response: %w", entity.ErrUpstreamFetch, endpoint, err)
		}
		return nil
	}
}

// retryAfter parses a Retry-After value in whole seconds.
func (c *Client) retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return c.cfg.DefaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func upstreamError(endpoint string, resp *resty.Response) *entity.UpstreamError {
	body := resp.Body()
	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	return &entity.UpstreamError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode(),
		Body:       string(body),
	}
}

func execute(breaker *circuitbreaker.CircuitBreaker, fn func() (any, error)) (any, error) {
	if breaker == nil {
		return fn()
	}
	return breaker.Execute(fn)
}

// breakerNeutral keeps cancellations and scan timeouts from counting
// against the breaker.
func breakerNeutral(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
