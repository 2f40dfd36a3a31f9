package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangast/popcorn/internal/config"
	"github.com/golangast/popcorn/neural/nnu/predict"
)

func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	pos := []string{"great wonderful film", "loved it, brilliant", "a moving and great story"}
	neg := []string{"awful boring film", "hated it, terrible", "a dull and awful story"}

	var sb strings.Builder
	sb.WriteString("id\tsentiment\treview\n")
	for i := 0; i < 40; i++ {
		label := i % 2
		text := neg[i%len(neg)]
		if label == 1 {
			text = pos[i%len(pos)]
		}
		fmt.Fprintf(&sb, "\"r%d\"\t%d\t\"%s\"\n", i, label, text)
	}
	path := filepath.Join(dir, "train.tsv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	return writeConfigWithRegistry(t, dir, filepath.Join(dir, "runs.db"))
}

func writeConfigWithRegistry(t *testing.T, dir, registry string) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Registry.Path = registry
	cfg.Logging.Level = "error"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.Save(path))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTrainWritesArtifactsAndRecordsRun(t *testing.T) {
	dir := t.TempDir()
	data := writeDataset(t, dir)
	cfgPath := writeConfig(t, dir)
	out := filepath.Join(dir, "models")

	stdout, err := execute(t, "--config", cfgPath, "--data", data, "--out", out, "--max-iter", "50")
	require.NoError(t, err)
	assert.Contains(t, stdout, "train rows:      32")
	assert.Contains(t, stdout, "validation rows: 8")
	assert.Contains(t, stdout, "ROC AUC:")
	assert.Contains(t, stdout, "positive terms:")
	assert.FileExists(t, filepath.Join(out, predict.VectorizerFile))
	assert.FileExists(t, filepath.Join(out, predict.ModelFile))

	scorer, err := predict.LoadScorerFromDir(out)
	require.NoError(t, err)
	assert.Greater(t, scorer.Score("great and wonderful"), scorer.Score("awful and boring"))

	stdout, err = execute(t, "--config", cfgPath, "runs")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2, stdout)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "32")
}

func TestTrainFailsOnMissingData(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "models")

	_, err := execute(t, "--config", writeConfig(t, dir), "--data", filepath.Join(dir, "missing.tsv"), "--out", out)
	require.Error(t, err)
	assert.NoDirExists(t, out)
}

func TestInvalidOverrideIsRejected(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "--config", writeConfig(t, dir), "--data", writeDataset(t, dir), "--max-features=-3")
	assert.Error(t, err)
}

func TestRunsWithoutRegistry(t *testing.T) {
	dir := t.TempDir()
	stdout, err := execute(t, "--config", writeConfig(t, dir), "runs")
	require.NoError(t, err)
	assert.Equal(t, "no runs recorded\n", stdout)
}

func TestEmptyRegistryPathDisablesRecording(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfigWithRegistry(t, dir, "")
	out := filepath.Join(dir, "models")

	_, err := execute(t, "--config", cfgPath, "--data", writeDataset(t, dir), "--out", out, "--max-iter", "50")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, predict.ModelFile))

	dbs, err := filepath.Glob(filepath.Join(dir, "*.db"))
	require.NoError(t, err)
	assert.Empty(t, dbs)

	stdout, err := execute(t, "--config", cfgPath, "runs")
	require.NoError(t, err)
	assert.Equal(t, "run registry disabled\n", stdout)
}

func TestConfigWritesEffectiveSettings(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "effective.yaml")

	_, err := execute(t, "--config", writeConfig(t, dir), "config", out)
	require.NoError(t, err)

	cfg, err := config.Load(out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "runs.db"), cfg.Registry.Path)
	assert.Equal(t, config.DefaultConfig().Training, cfg.Training)
}
