package entity

import "strings"

// Recipient is a chat that receives release notifications.
type Recipient struct {
	// ChatID is the messaging platform's chat identifier.
	ChatID string
	// Name is a human label used in logs only.
	Name string
	// Window is the recency window used by scheduled scans for this chat.
	Window RecencyWindow
}

// Validate checks that the recipient can be addressed.
func (r Recipient) Validate() error {
	if strings.TrimSpace(r.ChatID) == "" {
		return &ValidationError{Field: "chat_id", Message: "is required"}
	}
	if r.Window != 0 {
		return r.Window.Validate()
	}
	return nil
}
