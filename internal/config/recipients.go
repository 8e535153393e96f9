package config

import (
	"fmt"
	"os"

	"release-radar/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// recipientsFile is the YAML layout of RECIPIENTS_FILE:
//
//	recipients:
//	  - chat_id: 123456789
//	    name: me
//	    months: 3
type recipientsFile struct {
	Recipients []struct {
		ChatID string `yaml:"chat_id"`
		Name   string `yaml:"name"`
		Months int    `yaml:"months"`
	} `yaml:"recipients"`
}

// LoadRecipients reads the recipients file at path. An empty path yields
// just fallback. Entries without months inherit fallback.Window.
func LoadRecipients(path string, fallback entity.Recipient) ([]entity.Recipient, error) {
	if path == "" {
		return []entity.Recipient{fallback}, nil
	}

	// #nosec G304 -- path comes from the operator's environment
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipients file: %w", err)
	}

	var file recipientsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse recipients file: %w", err)
	}
	if len(file.Recipients) == 0 {
		return nil, fmt.Errorf("recipients file %s lists no recipients", path)
	}

	seen := make(map[string]bool, len(file.Recipients))
	recipients := make([]entity.Recipient, 0, len(file.Recipients))
	for i, r := range file.Recipients {
		rec := entity.Recipient{ChatID: r.ChatID, Name: r.Name, Window: entity.RecencyWindow(r.Months)}
		if rec.Window == 0 {
			rec.Window = fallback.Window
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i+1, err)
		}
		if seen[rec.ChatID] {
			return nil, fmt.Errorf("recipient %d: duplicate chat_id %s", i+1, rec.ChatID)
		}
		seen[rec.ChatID] = true
		recipients = append(recipients, rec)
	}
	return recipients, nil
}
