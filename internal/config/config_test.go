package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint64(42), cfg.Training.Seed)
	assert.Equal(t, 0.2, cfg.Training.ValidationFraction)
	assert.Equal(t, 20000, cfg.Training.MaxFeatures)
	assert.Equal(t, 200, cfg.Training.MaxIter)
	assert.Equal(t, filepath.Join("gob_models", "logreg_model.gob"), cfg.Artifacts.ModelPath())
	assert.Equal(t, filepath.Join("gob_models", "tfidf_vectorizer.gob"), cfg.Artifacts.VectorizerPath())
	require.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "popcorn.yaml")

	cfg := DefaultConfig()
	cfg.Training.Seed = 7
	cfg.Artifacts.Dir = "/srv/models"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "popcorn.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training:\n  max_iter: 50\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Training.MaxIter)
	assert.Equal(t, 20000, cfg.Training.MaxFeatures)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"not yaml", "training: [\n"},
		{"fraction", "training:\n  validation_fraction: 1.5\n"},
		{"iterations", "training:\n  max_iter: 0\n"},
		{"c", "training:\n  c: -1\n"},
		{"features", "training:\n  max_features: -3\n"},
		{"threshold", "training:\n  threshold: 1\n"},
		{"same artifact", "artifacts:\n  model: tfidf_vectorizer.gob\n"},
		{"format", "logging:\n  format: xml\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "popcorn.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
