package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/ocrbatch/internal/config"
)

func TestConfigShowDefaults(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "config", "show")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, config.EngineONNX, cfg.Engine)
	assert.Equal(t, []string{".png"}, cfg.Batch.Extensions)
	assert.Equal(t, 5, cfg.Batch.Padding)
}

func TestConfigShowEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("OCRBATCH_ENGINE", "remote")
	t.Setenv("OCRBATCH_BATCH_WORKERS", "3")

	out, _, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "engine: remote")
	assert.Contains(t, out, "workers: 3")
}

func TestConfigShowFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ocrbatch.yaml"), []byte("batch:\n  padding: 9\n"), 0o600))

	out, _, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# config file: ")
	assert.Contains(t, out, "padding: 9")
}

func TestConfigInit(t *testing.T) {
	dir := isolate(t)

	out, _, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written to ocrbatch.yaml")
	require.FileExists(t, filepath.Join(dir, config.DefaultConfigFile))

	_, _, err = execute(t, "config", "init")
	require.Error(t, err, "existing files are kept without --force")

	_, _, err = execute(t, "config", "init", "--force")
	require.NoError(t, err)

	// The written file is picked up by the next command.
	out, _, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# config file: ")
}

func TestConfigInitCustomFile(t *testing.T) {
	dir := isolate(t)
	target := filepath.Join(dir, "conf", "batch.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))

	_, _, err := execute(t, "config", "init", target)
	require.NoError(t, err)

	loaded, err := config.NewLoaderWithViper(viper.New()).LoadWithFile(target)
	require.NoError(t, err)
	assert.Equal(t, config.EngineONNX, loaded.Engine)
	assert.Equal(t, []string{".png"}, loaded.Batch.Extensions)
	assert.Equal(t, 5, loaded.Batch.Padding)
}

func TestConfigPaths(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "config", "paths")
	require.NoError(t, err)
	for _, p := range config.GetConfigSearchPaths() {
		assert.Contains(t, out, p)
	}
}
