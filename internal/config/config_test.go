package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:1234/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "http://localhost:8000", cfg.Chroma.URL)
	assert.Equal(t, 800, cfg.Index.ChunkSize)
	assert.Equal(t, 200, cfg.Index.ChunkOverlap)
	require.NotNil(t, cfg.Index.Reset)
	assert.True(t, *cfg.Index.Reset)
	assert.Equal(t, 3000, cfg.Chat.TokenBudget)
}

func TestLoad_FileOverridesAndDefaultsFill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
port: "9090"
index:
  collection_name: "manuals"
  reset: false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "manuals", cfg.Index.CollectionName)
	require.NotNil(t, cfg.Index.Reset)
	assert.False(t, *cfg.Index.Reset)
	// untouched sections still get defaults
	assert.Equal(t, "llama-3.2-3b-instruct", cfg.LLM.ChatModel)
	assert.Equal(t, 4, cfg.Index.TopK)
}

func TestLoad_LargeProfileDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
index:
  profile: "large"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1200, cfg.Index.ChunkSize)
	assert.Equal(t, 300, cfg.Index.ChunkOverlap)
	assert.Equal(t, 8, cfg.Index.TopK)
}

func TestLoad_LargeProfileExplicitSizesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
index:
  profile: "large"
  chunk_size: 500
  chunk_overlap: 50
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Index.ChunkSize)
	assert.Equal(t, 50, cfg.Index.ChunkOverlap)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAPIKeyResolution(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "sk-test")

	cfg := &AppConfig{}
	applyDefaults(cfg)
	cfg.LLM.APIKeyEnv = "TEST_LLM_KEY"
	assert.Equal(t, "sk-test", cfg.APIKey())

	cfg.Redis.PasswordEnv = ""
	assert.Empty(t, cfg.RedisPassword())
}
