package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowsmith", "config.yaml")
	ctx := context.Background()

	store, err := NewStoreAt(path)
	require.NoError(t, err)

	_, err = store.Get(ctx, domain.SettingRuntimeBaseURL)
	assert.ErrorIs(t, err, domain.ErrSettingNotFound)

	require.NoError(t, store.Set(ctx, domain.SettingRuntimeBaseURL, "http://runtime.local:5678"))
	require.NoError(t, store.Set(ctx, domain.SettingLLMProvider, "openai"))

	value, err := store.Get(ctx, domain.SettingRuntimeBaseURL)
	require.NoError(t, err)
	assert.Equal(t, "http://runtime.local:5678", value)

	// Values persist across store instances.
	reopened, err := NewStoreAt(path)
	require.NoError(t, err)

	value, err = reopened.Get(ctx, domain.SettingLLMProvider)
	require.NoError(t, err)
	assert.Equal(t, "openai", value)
}

func TestStoreGetAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	ctx := context.Background()

	store, err := NewStoreAt(path)
	require.NoError(t, err)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, store.Set(ctx, domain.SettingLLMModel, "gpt-4o"))
	require.NoError(t, store.Set(ctx, domain.SettingRuntimeAPIKey, "secret"))

	all, err = store.GetAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", all[domain.SettingLLMModel])
	assert.Equal(t, "secret", all[domain.SettingRuntimeAPIKey])
}

func TestStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	ctx := context.Background()

	store, err := NewStoreAt(path)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, domain.SettingLLMProvider, "anthropic"))
	require.NoError(t, store.Set(ctx, domain.SettingLLMProvider, "openai"))

	value, err := store.Get(ctx, domain.SettingLLMProvider)
	require.NoError(t, err)
	assert.Equal(t, "openai", value)
}
