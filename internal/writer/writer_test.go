package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fabbuild/internal/build"
	"github.com/vk/fabbuild/internal/model"
)

func TestWriteArtifact(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "intended", "configs")
	w, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, w.Dir())

	path, err := w.Write(&model.DesignedConfig{Hostname: "leaf1", Text: "hostname leaf1\n"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "leaf1.cfg"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hostname leaf1\n", string(content))
}

func TestNewCreatesMissingDirectories(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewFailsWhenPathIsAFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := New(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to create output directory")
}

func TestWriteFailureIsAPersistenceFailure(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	w, err := New(dir)
	require.NoError(t, err)

	// Yank the directory out from under the writer so the write fails
	// regardless of the privileges tests run with.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o644))

	_, err = w.Write(&model.DesignedConfig{Hostname: "leaf1", Text: "hostname leaf1\n"})
	require.Error(t, err)

	var failure *build.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "leaf1", failure.Host)
	assert.Equal(t, build.KindPersistence, failure.Kind)
	assert.Error(t, failure.Cause)
}
