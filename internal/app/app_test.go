package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"release-radar/internal/config"
	"release-radar/internal/domain/entity"
	"release-radar/internal/infra/adapter/persistence/boltdb"
	"release-radar/internal/infra/adapter/persistence/redisstore"
)

func TestOpenStore_Bolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deliveries.db")

	store, err := OpenStore(context.Background(), config.DedupConfig{Backend: config.DedupBolt, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.IsType(t, &boltdb.DeliveryRepo{}, store)
	claimed, err := store.Claim(context.Background(), "42", "album-1")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestOpenStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := OpenStore(context.Background(), config.DedupConfig{
		Backend:  config.DedupRedis,
		RedisURL: "redis://" + mr.Addr() + "/0",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.IsType(t, &redisstore.DeliveryRepo{}, store)
	require.NoError(t, store.MarkSent(context.Background(), "42", "album-1"))
	sent, err := store.IsSent(context.Background(), "42", "album-1")
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestOpenStore_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenStore(context.Background(), config.DedupConfig{Backend: config.DedupRedis, RedisURL: "redis://" + addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestOpenStore_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DedupConfig
	}{
		{name: "unknown backend", cfg: config.DedupConfig{Backend: "sqlite"}},
		{name: "postgres without url", cfg: config.DedupConfig{Backend: config.DedupPostgres}},
		{name: "bad redis url", cfg: config.DedupConfig{Backend: config.DedupRedis, RedisURL: "http://nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenStore(context.Background(), tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestBuild(t *testing.T) {
	cfg := &config.AppConfig{
		Telegram: config.TelegramConfig{BotToken: "123:abc", ChatID: "42"},
		Dedup:    config.DedupConfig{Backend: config.DedupBolt, Path: filepath.Join(t.TempDir(), "d.db")},
		Scan:     config.ScanConfig{Window: entity.RecencyWindow(3), Workers: 2, CacheSize: 16},
	}

	p, err := Build(context.Background(), cfg, 2, nil)
	require.NoError(t, err)

	require.NotNil(t, p.Service)
	assert.Same(t, p.Store, p.Service.Deliveries)
	assert.NotNil(t, p.Telegram)

	health := p.Notify.GetChannelHealth()
	require.Len(t, health, 1)
	assert.Equal(t, "telegram", health[0].Name)
	assert.True(t, health[0].Enabled)

	require.NoError(t, p.Close(context.Background()))
}
