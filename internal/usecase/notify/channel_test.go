package notify

import (
	"context"
	"sync"
	"testing"

	"release-radar/internal/domain/entity"
	"release-radar/internal/infra/notifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChannel is a test implementation of the Channel interface
type mockChannel struct {
	name        string
	enabled     bool
	mirror      bool
	sendError   error
	panicOnSend bool
	block       chan struct{}

	mu         sync.Mutex
	sendCalled int
	statuses   []string
}

func (m *mockChannel) Name() string    { return m.name }
func (m *mockChannel) IsEnabled() bool { return m.enabled }
func (m *mockChannel) IsMirror() bool  { return m.mirror }

func (m *mockChannel) Send(ctx context.Context, _ entity.Recipient, _ *entity.Release) error {
	m.mu.Lock()
	m.sendCalled++
	m.mu.Unlock()

	if m.panicOnSend {
		panic("mock panic in Send()")
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.sendError
}

func (m *mockChannel) SendStatus(_ context.Context, _ entity.Recipient, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, text)
	return m.sendError
}

func (m *mockChannel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendCalled
}

type fakeTelegramAPI struct {
	mu       sync.Mutex
	releases []string
	texts    []string
	chatIDs  []string
	err      error
}

func (f *fakeTelegramAPI) NotifyRelease(_ context.Context, chatID string, release *entity.Release) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatIDs = append(f.chatIDs, chatID)
	f.releases = append(f.releases, release.ID)
	return f.err
}

func (f *fakeTelegramAPI) SendText(_ context.Context, chatID, text string, _ *notifier.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatIDs = append(f.chatIDs, chatID)
	f.texts = append(f.texts, text)
	return f.err
}

func testRelease() *entity.Release {
	return &entity.Release{
		ID:          "album-1",
		Title:       "Night Drive",
		ArtistNames: []string{"The Midnight"},
		AlbumType:   "album",
	}
}

func TestTelegramChannel(t *testing.T) {
	api := &fakeTelegramAPI{}
	ch := NewTelegramChannel(api)
	recipient := entity.Recipient{ChatID: "42"}

	assert.Equal(t, "telegram", ch.Name())
	assert.True(t, ch.IsEnabled())

	require.NoError(t, ch.Send(context.Background(), recipient, testRelease()))
	require.NoError(t, ch.SendStatus(context.Background(), recipient, "Scanning…"))

	assert.Equal(t, []string{"album-1"}, api.releases)
	assert.Equal(t, []string{"Scanning…"}, api.texts)
	assert.Equal(t, []string{"42", "42"}, api.chatIDs)

	assert.ErrorIs(t, ch.Send(context.Background(), recipient, nil), ErrInvalidRelease)
}

func TestTelegramChannel_NilClientIsDisabled(t *testing.T) {
	ch := NewTelegramChannel(nil)

	assert.False(t, ch.IsEnabled())
	assert.ErrorIs(t, ch.Send(context.Background(), entity.Recipient{ChatID: "1"}, testRelease()), ErrChannelDisabled)
	assert.ErrorIs(t, ch.SendStatus(context.Background(), entity.Recipient{ChatID: "1"}, "x"), ErrChannelDisabled)
}

func TestDiscordChannel_Disabled(t *testing.T) {
	ch := NewDiscordChannel(notifier.DiscordConfig{Enabled: false})

	assert.Equal(t, "discord", ch.Name())
	assert.False(t, ch.IsEnabled())
	assert.True(t, ch.IsMirror())
	assert.ErrorIs(t, ch.Send(context.Background(), entity.Recipient{}, testRelease()), ErrChannelDisabled)
}

func TestDiscordChannel_EnabledRejectsNilRelease(t *testing.T) {
	ch := NewDiscordChannel(notifier.DiscordConfig{Enabled: true, WebhookURL: "http://127.0.0.1:1/hook"})

	assert.True(t, ch.IsEnabled())
	assert.ErrorIs(t, ch.Send(context.Background(), entity.Recipient{}, nil), ErrInvalidRelease)
}

func TestIsMirror(t *testing.T) {
	assert.True(t, isMirror(&mockChannel{mirror: true}))
	assert.False(t, isMirror(&mockChannel{}))
	assert.False(t, isMirror(NewTelegramChannel(nil)))
}
