package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/resilience/retry"
	"release-radar/internal/utils/text"
)

const (
	defaultTelegramAPI = "https://api.telegram.org"

	// Bot API limits
	maxCaptionRunes = 1024
	maxMessageRunes = 4096
)

// TelegramConfig configures the Bot API client.
type TelegramConfig struct {
	BotToken string
	// APIBaseURL defaults to https://api.telegram.org.
	APIBaseURL string
	Timeout    time.Duration
	// RequestsPerSecond and Burst bound outgoing messages. Telegram allows
	// about one message per second per chat.
	RequestsPerSecond float64
	Burst             int
}

// InlineKeyboardMarkup is Telegram's inline keyboard attached to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

type sendMessageRequest struct {
	ChatID                string                `json:"chat_id"`
	Text                  string                `json:"text"`
	ParseMode             string                `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool                  `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup           *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type sendPhotoRequest struct {
	ChatID      string                `json:"chat_id"`
	Photo       string                `json:"photo"`
	Caption     string                `json:"caption,omitempty"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

type setWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// TelegramNotifier talks to the Telegram Bot API over JSON POSTs.
type TelegramNotifier struct {
	config      TelegramConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retryConfig retry.Config
}

func NewTelegramNotifier(config TelegramConfig) *TelegramNotifier {
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultTelegramAPI
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 1
	}
	if config.Burst <= 0 {
		config.Burst = 3
	}
	return &TelegramNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(config.RequestsPerSecond, config.Burst),
		retryConfig: retry.TelegramConfig(),
	}
}

// NotifyRelease sends the cover art with a caption, falling back to a plain
// text message when the photo cannot be sent.
func (t *TelegramNotifier) NotifyRelease(ctx context.Context, chatID string, release *entity.Release) error {
	body := FormatReleaseHTML(release)
	keyboard := releaseKeyboard(release)

	if release.ImageURL != "" {
		err := t.SendPhoto(ctx, chatID, release.ImageURL, body, keyboard)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		slog.Warn("Telegram photo failed, falling back to text",
			slog.String("request_id", requestIDFrom(ctx)),
			slog.String("release_id", release.ID),
			slog.Any("error", err))
	}

	return t.SendText(ctx, chatID, body, keyboard)
}

// SendText sends an HTML-formatted message, optionally with an inline keyboard.
func (t *TelegramNotifier) SendText(ctx context.Context, chatID, body string, markup *InlineKeyboardMarkup) error {
	return t.send(ctx, "sendMessage", sendMessageRequest{
		ChatID:                chatID,
		Text:                  text.Truncate(body, maxMessageRunes, ellipsis),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
		ReplyMarkup:           markup,
	})
}

// SendPhoto sends a photo by URL; Telegram fetches the image itself.
func (t *TelegramNotifier) SendPhoto(ctx context.Context, chatID, photoURL, caption string, markup *InlineKeyboardMarkup) error {
	return t.send(ctx, "sendPhoto", sendPhotoRequest{
		ChatID:      chatID,
		Photo:       photoURL,
		Caption:     text.Truncate(caption, maxCaptionRunes, ellipsis),
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	})
}

// AnswerCallback acknowledges an inline button press. It skips the message
// rate limiter since Telegram expects a prompt answer.
func (t *TelegramNotifier) AnswerCallback(ctx context.Context, callbackID, reply string) error {
	return t.call(ctx, "answerCallbackQuery", answerCallbackRequest{
		CallbackQueryID: callbackID,
		Text:            reply,
	})
}

// SetWebhook registers webhookURL with Telegram. secret is echoed back in the
// X-Telegram-Bot-Api-Secret-Token header of every update.
func (t *TelegramNotifier) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	return sendWithRetry(ctx, t.retryConfig, func(ctx context.Context) error {
		return t.call(ctx, "setWebhook", setWebhookRequest{
			URL:            webhookURL,
			SecretToken:    secret,
			AllowedUpdates: []string{"message", "callback_query"},
		})
	})
}

func (t *TelegramNotifier) send(ctx context.Context, method string, payload any) error {
	if err := t.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	return sendWithRetry(ctx, t.retryConfig, func(ctx context.Context) error {
		return t.call(ctx, method, payload)
	})
}

// call performs a single Bot API request and maps failures onto
// RateLimitError, ClientError and ServerError.
func (t *TelegramNotifier) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(t.config.APIBaseURL, "/"), t.config.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, t.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, t.redact(err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var parsed telegramResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode == http.StatusOK && parsed.OK {
		return nil
	}

	description := parsed.Description
	if description == "" {
		description = strings.TrimSpace(string(raw))
	}
	status := resp.StatusCode
	if status == http.StatusOK {
		// ok=false with a 200 is treated as a rejected request.
		status = http.StatusBadRequest
	}

	retryAfter := time.Second
	if parsed.Parameters != nil && parsed.Parameters.RetryAfter > 0 {
		retryAfter = time.Duration(parsed.Parameters.RetryAfter) * time.Second
	}

	return classifyStatus(status, retryAfter, fmt.Sprintf("telegram %s: HTTP %d: %s", method, resp.StatusCode, description))
}

// redact removes the bot token from transport errors, which embed the URL.
func (t *TelegramNotifier) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && t.config.BotToken != "" {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, t.config.BotToken, "<redacted>")
	}
	return err
}
