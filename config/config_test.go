package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stereovo/frontend/spatialmath"
)

func validConfig() Config {
	cfg := Default()
	cfg.Camera = spatialmath.Intrinsics{Width: 640, Height: 480, Fx: 400, Fy: 400, Ppx: 320, Ppy: 240}
	cfg.Baseline = 0.12
	return cfg
}

func TestDefaultIsInvalidWithoutCamera(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate())
}

func TestValidConfigPasses(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesOntoDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.NumFeatures = 999

	dir := t.TempDir()
	path := filepath.Join(dir, "frontend.json")
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	// Leave lm_outer_iterations out of the file so Load has to take it from
	// Default.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	delete(raw, "lm_outer_iterations")
	data, err = json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 999, loaded.NumFeatures)
	assert.Equal(t, Default().LMOuterIterations, loaded.LMOuterIterations)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frontend.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
