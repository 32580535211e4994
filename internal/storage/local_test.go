package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchive(t *testing.T) {
	ctx := context.Background()
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	body := []byte(`{"event":"payment.captured"}`)
	key := WebhookKey("evt_1", time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "webhooks/2026/10/14/evt_1.json", key)

	ok, err := archive.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, archive.Save(ctx, key, body, "application/json"))

	ok, err = archive.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := archive.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	_, err = archive.Get(ctx, "webhooks/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalArchiveStaysInsideBase(t *testing.T) {
	base := t.TempDir()
	archive, err := NewLocalArchive(base)
	require.NoError(t, err)

	require.NoError(t, archive.Save(context.Background(), "../../escape.json", []byte("{}"), "application/json"))
	ok, err := archive.Exists(context.Background(), "escape.json")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewArchiveTypes(t *testing.T) {
	a, err := NewArchive(context.Background(), Config{Type: "none"})
	require.NoError(t, err)
	assert.IsType(t, NoopArchive{}, a)

	_, err = NewArchive(context.Background(), Config{Type: "ftp"})
	assert.Error(t, err)

	_, err = NewArchive(context.Background(), Config{Type: "s3"})
	assert.Error(t, err)
}

func TestWebhookKeyWithoutEventID(t *testing.T) {
	key := WebhookKey("", time.Now())
	assert.Contains(t, key, "webhooks/")
	assert.Contains(t, key, ".json")
}
