package testdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("TEST_DB_HOST=from-file\nTEST_DB_PORT=6000\n"), 0o600))

	t.Setenv(EnvHost, "")
	require.NoError(t, os.Unsetenv(EnvHost))
	t.Setenv(EnvPort, "7000")

	require.NoError(t, LoadEnvFiles(filepath.Join(dir, "missing.env"), path))

	assert.Equal(t, "from-file", os.Getenv(EnvHost))
	// Variables already set win over the file.
	assert.Equal(t, "7000", os.Getenv(EnvPort))
}

func TestLoadEnvFiles_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("BAD-KEY=value\n"), 0o600))

	require.Error(t, LoadEnvFiles(path))
}

func TestEnvFiles_FindsModuleRoot(t *testing.T) {
	root := t.TempDir()
	pkg := filepath.Join(root, "internal", "adapter")
	require.NoError(t, os.MkdirAll(pkg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultEnvFile), []byte("TEST_DB_HOST=from-root\n"), 0o600))

	// Resolve symlinks so the comparison holds on systems where TempDir is linked.
	root, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	t.Chdir(filepath.Join(root, "internal", "adapter"))

	got, err := ModuleRoot()
	require.NoError(t, err)
	assert.Equal(t, root, got)

	files := EnvFiles(DefaultEnvFile)
	assert.Equal(t, []string{DefaultEnvFile, filepath.Join(root, DefaultEnvFile)}, files)

	t.Setenv(EnvHost, "")
	require.NoError(t, os.Unsetenv(EnvHost))
	require.NoError(t, LoadEnvFiles(files...))
	assert.Equal(t, "from-root", os.Getenv(EnvHost))
}

func TestEnvFiles_AtModuleRoot(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example\n"), 0o600))
	t.Chdir(root)

	assert.Equal(t, []string{DefaultEnvFile}, EnvFiles(DefaultEnvFile))
}
