package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MODEL_PATH", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "oral_disease_model.onnx", cfg.ModelPath)
	require.Equal(t, "7000", cfg.Port)
	require.Equal(t, ":7000", cfg.Addr())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MODEL_PATH", "/models/oral.onnx")
	t.Setenv("PORT", "8081")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/models/oral.onnx", cfg.ModelPath)
	require.Equal(t, "8081", cfg.Port)
}

func TestLoadFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MODEL_PATH=from-dotenv.onnx\nPORT=9090\n"), 0644))
	t.Chdir(dir)
	// godotenv never overrides variables that are already set, so clear them
	t.Setenv("MODEL_PATH", "")
	os.Unsetenv("MODEL_PATH")
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-dotenv.onnx", cfg.ModelPath)
	require.Equal(t, "9090", cfg.Port)
}

func TestLoadRejectsBrokenDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MODEL_PATH=\"unterminated\n"), 0644))
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), ".env")
}
