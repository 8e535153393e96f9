package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/resilience/retry"
	"release-radar/internal/utils/text"
)

// DiscordConfig contains configuration for the optional Discord mirror channel.
type DiscordConfig struct {
	Enabled bool
	// WebhookURL includes the webhook token.
	WebhookURL string
	Timeout    time.Duration
}

// DiscordNotifier mirrors release announcements to a Discord webhook.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retryConfig retry.Config
}

// NewDiscordNotifier limits sends to 0.5 req/s with a burst of 3, matching
// Discord's 30 requests per minute webhook limit.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(0.5, 3),
		retryConfig: retry.DiscordConfig(),
	}
}

type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	URL         string                 `json:"url,omitempty"`
	Color       int                    `json:"color"`
	Thumbnail   *DiscordEmbedThumbnail `json:"thumbnail,omitempty"`
	Footer      DiscordEmbedFooter     `json:"footer"`
	Timestamp   string                 `json:"timestamp,omitempty"`
}

type DiscordEmbedThumbnail struct {
	URL string `json:"url"`
}

type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// DiscordErrorResponse is Discord's error body. RetryAfter is in seconds.
type DiscordErrorResponse struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"`
}

const (
	maxEmbedTitleRunes       = 256
	maxEmbedDescriptionRunes = 4096

	// Spotify green (#1DB954)
	releaseEmbedColor = 1947988
)

func (d *DiscordNotifier) buildEmbedPayload(release *entity.Release) DiscordWebhookPayload {
	description := fmt.Sprintf("%s\n%s · %s", release.Artists(), displayDate(release), release.Kind())

	embed := DiscordEmbed{
		Title:       text.Truncate(release.Title, maxEmbedTitleRunes, ellipsis),
		Description: text.Truncate(description, maxEmbedDescriptionRunes, ellipsis),
		URL:         release.URL,
		Color:       releaseEmbedColor,
		Footer:      DiscordEmbedFooter{Text: "New " + release.Kind()},
	}
	if release.ImageURL != "" {
		embed.Thumbnail = &DiscordEmbedThumbnail{URL: release.ImageURL}
	}
	if !release.Released.Time.IsZero() {
		embed.Timestamp = release.Released.Time.Format(time.RFC3339)
	}

	return DiscordWebhookPayload{Embeds: []DiscordEmbed{embed}}
}

func (d *DiscordNotifier) sendWebhookRequest(ctx context.Context, release *entity.Release) error {
	jsonData, err := json.Marshal(d.buildEmbedPayload(release))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return classifyStatus(resp.StatusCode, extractRetryAfter(resp, body),
		fmt.Sprintf("Discord API error (HTTP %d): %s", resp.StatusCode, string(body)))
}

// extractRetryAfter reads retry_after from the JSON body, then the
// Retry-After header, defaulting to 5s.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var discordErr DiscordErrorResponse
	if err := json.Unmarshal(body, &discordErr); err == nil && discordErr.RetryAfter > 0 {
		return time.Duration(discordErr.RetryAfter * float64(time.Second))
	}
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}

// NotifyRelease posts release to the configured webhook. chatID is unused.
func (d *DiscordNotifier) NotifyRelease(ctx context.Context, _ string, release *entity.Release) error {
	requestID := requestIDFrom(ctx)

	if err := d.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	err := sendWithRetry(ctx, d.retryConfig, func(ctx context.Context) error {
		return d.sendWebhookRequest(ctx, release)
	})
	if err != nil {
		slog.Error("Discord notification failed",
			slog.String("request_id", requestID),
			slog.String("release_id", release.ID),
			slog.Any("error", err))
		return fmt.Errorf("discord notification failed: %w", err)
	}

	slog.Info("Discord notification successful",
		slog.String("request_id", requestID),
		slog.String("release_id", release.ID))
	return nil
}
