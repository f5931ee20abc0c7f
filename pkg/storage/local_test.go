package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "tasks/a.yaml", []byte("title: a")))

	data, err := s.Read(ctx, "tasks/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, []byte("title: a"), data)

	exists, err := s.Exists(ctx, "tasks/a.yaml")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete(ctx, "tasks/a.yaml"))
	exists, err = s.Exists(ctx, "tasks/a.yaml")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_NotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Read(ctx, "tasks/missing.yaml")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Delete(ctx, "tasks/missing.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_OverwriteReplacesContent(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "tasks/a.yaml", []byte("v1")))
	require.NoError(t, s.Write(ctx, "tasks/a.yaml", []byte("v2")))

	data, err := s.Read(ctx, "tasks/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestLocalStorage_List(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "tasks/a.yaml", []byte("a")))
	require.NoError(t, s.Write(ctx, "tasks/b.yaml", []byte("b")))
	require.NoError(t, s.Write(ctx, "agents/c.yaml", []byte("c")))

	// Leftover temp files from interrupted writes are not records.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks", "junk.yaml.tmp"), []byte("x"), 0o644))

	paths, err := s.List(ctx, "tasks")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tasks/a.yaml", "tasks/b.yaml"}, paths)

	// Missing prefix lists empty, not an error.
	paths, err = s.List(ctx, "memories")
	require.NoError(t, err)
	assert.Empty(t, paths)
}
