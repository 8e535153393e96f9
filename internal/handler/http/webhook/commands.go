package webhook

import (
	"fmt"
	"strconv"
	"strings"

	"release-radar/internal/domain/entity"
	"release-radar/internal/infra/notifier"
)

// Callback payloads of the window keyboard.
const (
	callbackMonthsPrefix = "months:"
	callbackCancel       = "cancel"
)

// keyboardWindows are the windows offered by /releases.
var keyboardWindows = []entity.RecencyWindow{1, 3, 6, 12}

const (
	pickWindowText  = "How far back should I look?"
	alreadyRunning  = "A scan is already running. Send /cancel to stop it."
	cancellingText  = "Cancelling the running scan."
	nothingToCancel = "No scan is running."
	shuttingDown    = "The bot is shutting down, try again in a minute."
)

func windowKeyboard() *notifier.InlineKeyboardMarkup {
	row := make([]notifier.InlineKeyboardButton, 0, len(keyboardWindows))
	for _, w := range keyboardWindows {
		label := fmt.Sprintf("%d months", int(w))
		if w == 1 {
			label = "1 month"
		}
		row = append(row, notifier.InlineKeyboardButton{
			Text:         label,
			CallbackData: callbackMonthsPrefix + strconv.Itoa(int(w)),
		})
	}
	return &notifier.InlineKeyboardMarkup{
		InlineKeyboard: [][]notifier.InlineKeyboardButton{
			row,
			{{Text: "Cancel", CallbackData: callbackCancel}},
		},
	}
}

func invalidWindowText() string {
	return fmt.Sprintf("Use /releases N with N between 1 and %d.", entity.MaxWindowMonths)
}

// command splits "/releases@MyBot 3" into ("/releases", "3").
func command(text string) (string, string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	return strings.ToLower(name), arg
}

// parseWindow parses a month count and checks its range.
func parseWindow(s string) (entity.RecencyWindow, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid window %q", s)
	}
	w := entity.RecencyWindow(n)
	if err := w.Validate(); err != nil {
		return 0, err
	}
	return w, nil
}
