package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zachsrosen/pb-operations-suite-sub002/internal/bom"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom-engine.config")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "default config should be written")
	assert.Equal(t, DefaultChunkSize, cfg.Upload.ChunkSizeBytes)
	assert.Equal(t, filepath.Join(dir, "data/uploads"), cfg.GetUploadDir())
	assert.True(t, filepath.IsAbs(cfg.Storage.SnapshotDBPath))
}

func TestLoadConfig_ReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom-engine.config")
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<BomEngine>
  <Server><Port>9001</Port><BindAddress>127.0.0.1</BindAddress></Server>
  <Upload><ChunkSizeBytes>524288</ChunkSizeBytes></Upload>
  <Catalog><URL>http://catalog.local/compare</URL></Catalog>
</BomEngine>`
	require.NoError(t, os.WriteFile(path, []byte(xmlDoc), 0644))

	t.Setenv("EXTRACTION_URL", "http://extract.local/run")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9001", cfg.GetServerAddr())
	assert.Equal(t, 524288, cfg.Upload.ChunkSizeBytes)
	// untouched sections keep defaults
	assert.Equal(t, 3, cfg.Upload.MaxAttempts)
	assert.Equal(t, "http://catalog.local/compare", cfg.Catalog.URL)
	assert.Equal(t, "http://extract.local/run", cfg.Extraction.URL)
}

func TestLoadConfig_InvalidXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.config")
	require.NoError(t, os.WriteFile(path, []byte("<BomEngine><Server>"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.resolvePaths(dir)
	require.NoError(t, cfg.EnsureDirectories())

	_, err := os.Stat(cfg.GetUploadDir())
	assert.NoError(t, err)
}

func TestParseMatchRules(t *testing.T) {
	rules, err := ParseMatchRules(strings.NewReader("similarity_threshold: 0.65\ndisabled_sources: [zuper]\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.65, rules.Matcher().SimilarityThreshold)
	assert.Equal(t, []string{"zuper"}, rules.DisabledSources)
}

func TestParseMatchRules_Defaults(t *testing.T) {
	rules, err := ParseMatchRules(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, bom.DefaultSimilarityThreshold, rules.Matcher().SimilarityThreshold)

	var nilRules *MatchRules
	assert.Equal(t, bom.DefaultSimilarityThreshold, nilRules.Matcher().SimilarityThreshold)
}

func TestParseMatchRules_OutOfRange(t *testing.T) {
	_, err := ParseMatchRules(strings.NewReader("similarity_threshold: 1.5\n"))
	assert.Error(t, err)
}

func TestLoadMatchRules_MissingFile(t *testing.T) {
	rules, err := LoadMatchRules(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, rules.DisabledSources)
}
