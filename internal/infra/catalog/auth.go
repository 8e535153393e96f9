package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/observability/tracing"

	"github.com/go-resty/resty/v2"
)

// TokenRefresher exchanges the configured refresh token for an access token.
type TokenRefresher struct {
	http *resty.Client
	cfg  Config
	now  func() time.Time
}

// NewTokenRefresher creates a refresher. Requests are not retried.
func NewTokenRefresher(cfg Config) *TokenRefresher {
	cfg = cfg.withDefaults()
	return &TokenRefresher{
		http: resty.New().SetTimeout(cfg.Timeout),
		cfg:  cfg,
		now:  time.Now,
	}
}

// Refresh returns a fresh access token. Every failure wraps entity.ErrAuthFailure.
func (r *TokenRefresher) Refresh(ctx context.Context) (_ *entity.Token, err error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.refresh_token")
	defer func() { tracing.EndSpan(span, err) }()

	endpoint := strings.TrimRight(r.cfg.AccountsBaseURL, "/") + "/api/token"
	resp, err := r.http.R().
		SetContext(ctx).
		SetBasicAuth(r.cfg.ClientID, r.cfg.ClientSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": r.cfg.RefreshToken,
		}).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrAuthFailure, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %w", entity.ErrAuthFailure, &entity.UpstreamError{
			Endpoint:   "token",
			StatusCode: resp.StatusCode(),
			Body:       string(resp.Body()),
		})
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %w", entity.ErrAuthFailure, err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: response has no access_token", entity.ErrAuthFailure)
	}

	ttl := tokenExpiryWithoutExpiry
	if tr.ExpiresIn > 0 {
		ttl = time.Duration(tr.ExpiresIn) * time.Second
	}
	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return &entity.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tokenType,
		ExpiresAt:   r.now().Add(ttl),
	}, nil
}
