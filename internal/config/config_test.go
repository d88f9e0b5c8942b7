package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lexgest/internal/legal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 100, cfg.MaxQueueSize)
	assert.Equal(t, "hybrid", cfg.MergeStrategy)
	assert.Equal(t, 3*time.Minute, cfg.BatchTimeout)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.True(t, cfg.PDFFallbackPdftotext)
	assert.Empty(t, cfg.PathstoreURL)

	opts := cfg.Options()
	assert.Equal(t, legal.LengthMedium, opts.Length)
	assert.Equal(t, legal.DefaultTokenCeiling, opts.TokenCeiling)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("BATCH_TIMEOUT", "45s")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("COMPLEXITY", "advanced")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 45*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "sk-test", cfg.AnthropicAPIKey)
	assert.True(t, cfg.Options().Extended())
	assert.False(t, cfg.PDFFallbackPdftotext)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexgest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("merge_strategy: deterministic\ntoken_ceiling: 4000\nworker_count: 0\n"), 0o600))
	t.Setenv("TOKEN_CEILING", "6000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "deterministic", cfg.MergeStrategy)
	assert.Equal(t, 6000, cfg.TokenCeiling)
	assert.Equal(t, 4, cfg.WorkerCount, "non-positive worker count falls back to default")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("LEXGEST_API_KEY", "")
	t.Setenv("PATHSTORE_API_KEY", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "ANTHROPIC_API_KEY")

	cfg.AnthropicAPIKey = "k"
	assert.NoError(t, cfg.Validate())
	assert.ErrorContains(t, cfg.ValidateServer(), "LEXGEST_API_KEY")

	cfg.APIKey = "secret"
	assert.NoError(t, cfg.ValidateServer())

	cfg.PathstoreURL = "http://pathstore:8080"
	assert.ErrorContains(t, cfg.ValidateServer(), "PATHSTORE_API_KEY")

	cfg.MergeStrategy = "vote"
	assert.Error(t, cfg.Validate())

	cfg.MergeStrategy = "model"
	cfg.Tone = "sarcastic"
	assert.ErrorContains(t, cfg.Validate(), "tone")
}
