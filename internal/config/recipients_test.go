package config

import (
	"os"
	"path/filepath"
	"testing"

	"release-radar/internal/domain/entity"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecipients(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipients.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadRecipients(t *testing.T) {
	fallback := entity.Recipient{ChatID: "42", Window: 6}

	t.Run("empty path uses fallback", func(t *testing.T) {
		got, err := LoadRecipients("", fallback)
		require.NoError(t, err)
		assert.Equal(t, []entity.Recipient{fallback}, got)
	})

	t.Run("numeric and string chat ids", func(t *testing.T) {
		path := writeRecipients(t, `
recipients:
  - chat_id: 123456789
    name: me
    months: 3
  - chat_id: "-1001234567890"
    name: group
`)
		got, err := LoadRecipients(path, fallback)
		require.NoError(t, err)

		want := []entity.Recipient{
			{ChatID: "123456789", Name: "me", Window: 3},
			{ChatID: "-1001234567890", Name: "group", Window: 6},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("recipients mismatch (-want +got):\n%s", diff)
		}
	})

	errorCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "no recipients", body: "recipients: []\n", wantErr: "lists no recipients"},
		{name: "missing chat id", body: "recipients:\n  - name: x\n", wantErr: "recipient 1"},
		{name: "window out of range", body: "recipients:\n  - chat_id: 1\n    months: 30\n", wantErr: "recipient 1"},
		{name: "duplicate", body: "recipients:\n  - chat_id: 1\n  - chat_id: 1\n", wantErr: "duplicate chat_id 1"},
		{name: "malformed yaml", body: "recipients: [", wantErr: "failed to parse"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRecipients(writeRecipients(t, tt.body), fallback)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRecipients(filepath.Join(t.TempDir(), "nope.yaml"), fallback)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read")
	})
}
