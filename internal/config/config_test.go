package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setFalEnv(t *testing.T) {
	t.Setenv("GENERATION_PROVIDER", "")
	t.Setenv("FAL_API_KEY", "test-key")
	t.Setenv("FAL_IMAGE_MODEL_ID", "test-image-model")
	t.Setenv("FAL_VIDEO_MODEL_ID", "test-video-model")
}

func TestLoadDefaults(t *testing.T) {
	setFalEnv(t)
	t.Setenv("DEFAULT_PROMPT", "")
	t.Setenv("DEFAULT_IMAGE_COUNT", "")
	t.Setenv("STORAGE_ROOT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderFal, cfg.Provider)
	assert.Equal(t, "test-key", cfg.FalAPIKey)
	assert.Equal(t, "test-image-model", cfg.ImageModelID)
	assert.Equal(t, "test-video-model", cfg.VideoModelID)
	assert.Equal(t, defaultPrompt, cfg.DefaultPrompt)
	assert.Equal(t, 4, cfg.DefaultImageCount)
	assert.Equal(t, "storage", cfg.StorageRoot)
	assert.Equal(t, "https://fal.run", cfg.FalRunURL)
	assert.Equal(t, 600*time.Second, cfg.HTTPWriteTimeout)
}

func TestLoadOverrides(t *testing.T) {
	setFalEnv(t)
	t.Setenv("DEFAULT_PROMPT", "a neon city")
	t.Setenv("DEFAULT_IMAGE_COUNT", "2")
	t.Setenv("STORAGE_ROOT", "/srv/media")
	t.Setenv("PUBLIC_BASE_URL", "https://media.example.com/")
	t.Setenv("FAL_API_KEY", `"quoted-key"`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "a neon city", cfg.DefaultPrompt)
	assert.Equal(t, 2, cfg.DefaultImageCount)
	assert.Equal(t, "/srv/media", cfg.StorageRoot)
	assert.Equal(t, "https://media.example.com", cfg.PublicBaseURL)
	assert.Equal(t, "quoted-key", cfg.FalAPIKey)
}

func TestLoadMissingRequired(t *testing.T) {
	for _, name := range []string{"FAL_API_KEY", "FAL_IMAGE_MODEL_ID", "FAL_VIDEO_MODEL_ID"} {
		t.Run(name, func(t *testing.T) {
			setFalEnv(t)
			t.Setenv("FAL_KEY", "")
			t.Setenv(name, "")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoadReplicateProvider(t *testing.T) {
	t.Setenv("GENERATION_PROVIDER", "replicate")
	t.Setenv("REPLICATE_API_TOKEN", "r8_token")
	t.Setenv("REPLICATE_MODEL_IMAGE", "bytedance/seedream-4")
	t.Setenv("REPLICATE_MODEL_VIDEO", "kwaivgi/kling-v2.1")
	t.Setenv("FAL_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderReplicate, cfg.Provider)
	assert.Equal(t, "bytedance/seedream-4", cfg.ImageModelID)
	assert.Equal(t, "kwaivgi/kling-v2.1", cfg.VideoModelID)
}

func TestLoadUnknownProvider(t *testing.T) {
	setFalEnv(t)
	t.Setenv("GENERATION_PROVIDER", "midjourney")
	_, err := Load()
	require.Error(t, err)
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())

	cfg.CORSOrigins = ""
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}
