// Package webhook serves Telegram bot updates: window selection, on-demand
// scans and cancellation for the configured chats.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"release-radar/internal/domain/entity"
	"release-radar/internal/handler/http/respond"
	"release-radar/internal/infra/notifier"
	"release-radar/internal/usecase/release"
)

// SecretHeader carries the secret registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Path is where Telegram posts updates.
const Path = "/telegram/webhook"

// Runner starts and cancels scans. *release.Runner implements it.
type Runner interface {
	Start(req release.ScanRequest) error
	Cancel(chatID string) bool
}

// Bot sends replies. *notifier.TelegramNotifier implements it.
type Bot interface {
	SendText(ctx context.Context, chatID, text string, markup *notifier.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Handler dispatches updates from allowed chats.
type Handler struct {
	secret  []byte
	allowed map[string]entity.Recipient
	runner  Runner
	bot     Bot
	logger  *slog.Logger
}

// NewHandler creates a handler that accepts updates carrying secret and
// ignores chats not listed in recipients.
func NewHandler(secret string, recipients []entity.Recipient, runner Runner, bot Bot, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]entity.Recipient, len(recipients))
	for _, r := range recipients {
		allowed[r.ChatID] = r
	}
	return &Handler{
		secret:  []byte(secret),
		allowed: allowed,
		runner:  runner,
		bot:     bot,
		logger:  logger,
	}
}

// Register mounts the webhook route on r.
func (h *Handler) Register(r chi.Router) {
	r.Post(Path, h.ServeHTTP)
}

// ServeHTTP answers 401 on a wrong secret and 200 for everything else,
// including updates it ignores.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	got := []byte(r.Header.Get(SecretHeader))
	if len(h.secret) == 0 || subtle.ConstantTimeCompare(got, h.secret) != 1 {
		respond.Error(w, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	var u update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		h.logger.Warn("ignoring undecodable update", slog.Any("error", err))
		w.WriteHeader(http.StatusOK)
		return
	}

	switch {
	case u.CallbackQuery != nil:
		h.handleCallback(r.Context(), u.CallbackQuery)
	case u.Message != nil:
		h.handleMessage(r.Context(), u.Message)
	default:
		h.logger.Debug("ignoring update", slog.Int64("update_id", u.UpdateID))
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleMessage(ctx context.Context, m *message) {
	recipient, ok := h.recipient(m.Chat)
	if !ok {
		return
	}

	name, arg := command(m.Text)
	switch name {
	case "/start":
		h.reply(ctx, recipient, pickWindowText, windowKeyboard())
	case "/releases":
		if arg == "" {
			h.reply(ctx, recipient, pickWindowText, windowKeyboard())
			return
		}
		window, err := parseWindow(arg)
		if err != nil {
			h.reply(ctx, recipient, invalidWindowText(), nil)
			return
		}
		h.start(ctx, recipient, window)
	case "/cancel":
		h.cancel(ctx, recipient)
	}
}

func (h *Handler) handleCallback(ctx context.Context, q *callbackQuery) {
	if q.Message == nil {
		return
	}
	recipient, ok := h.recipient(q.Message.Chat)
	if !ok {
		return
	}

	switch {
	case q.Data == callbackCancel:
		h.answer(ctx, q.ID, "Cancelling…")
		h.cancel(ctx, recipient)
	case strings.HasPrefix(q.Data, callbackMonthsPrefix):
		window, err := parseWindow(strings.TrimPrefix(q.Data, callbackMonthsPrefix))
		if err != nil {
			h.answer(ctx, q.ID, invalidWindowText())
			return
		}
		h.answer(ctx, q.ID, fmt.Sprintf("Scanning %d months…", int(window)))
		h.start(ctx, recipient, window)
	default:
		h.answer(ctx, q.ID, "")
	}
}

func (h *Handler) start(ctx context.Context, recipient entity.Recipient, window entity.RecencyWindow) {
	err := h.runner.Start(release.ScanRequest{
		Recipient: recipient,
		Window:    window,
		Trigger:   "webhook",
	})
	switch {
	case err == nil:
		h.logger.Info("scan started from chat",
			slog.String("chat_id", recipient.ChatID),
			slog.Int("window_months", int(window)))
	case errors.Is(err, release.ErrRunInProgress):
		h.reply(ctx, recipient, alreadyRunning, nil)
	case errors.Is(err, release.ErrRunnerClosed):
		h.reply(ctx, recipient, shuttingDown, nil)
	default:
		h.logger.Error("failed to start scan",
			slog.String("chat_id", recipient.ChatID),
			slog.String("error", respond.SanitizeError(err)))
	}
}

func (h *Handler) cancel(ctx context.Context, recipient entity.Recipient) {
	if h.runner.Cancel(recipient.ChatID) {
		h.reply(ctx, recipient, cancellingText, nil)
		return
	}
	h.reply(ctx, recipient, nothingToCancel, nil)
}

// recipient resolves an allowed chat.
func (h *Handler) recipient(c chat) (entity.Recipient, bool) {
	rec, ok := h.allowed[c.key()]
	if !ok {
		h.logger.Warn("ignoring update from unknown chat", slog.Int64("chat_id", c.ID))
	}
	return rec, ok
}

func (h *Handler) reply(ctx context.Context, recipient entity.Recipient, text string, markup *notifier.InlineKeyboardMarkup) {
	if err := h.bot.SendText(ctx, recipient.ChatID, text, markup); err != nil {
		h.logger.Warn("failed to reply",
			slog.String("chat_id", recipient.ChatID),
			slog.String("error", respond.SanitizeError(err)))
	}
}

func (h *Handler) answer(ctx context.Context, callbackID, text string) {
	if err := h.bot.AnswerCallback(ctx, callbackID, text); err != nil {
		h.logger.Warn("failed to answer callback", slog.String("error", respond.SanitizeError(err)))
	}
}
