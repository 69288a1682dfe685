package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ipynbsrv/coco/internal/backend"
)

func TestLocalBackend(t *testing.T) {
	root := t.TempDir()
	storageBackend := NewLocal(root)

	exists, err := storageBackend.DirExists("notebook")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, storageBackend.CreateDirectory("notebook"))
	require.ErrorIs(t, storageBackend.CreateDirectory("notebook"), backend.ErrIllegalState)

	exists, err = storageBackend.DirExists("notebook")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, storageBackend.CreateDirectory("notebook/data"))

	entries, err := storageBackend.ListDirectory("notebook")
	require.NoError(t, err)
	require.Equal(t, []string{"data"}, entries)

	// A non-empty directory needs force to be deleted.
	require.ErrorIs(t, storageBackend.DeleteDirectory("notebook"), backend.ErrIllegalState)
	require.NoError(t, storageBackend.DeleteDirectory("notebook", backend.Options{backend.OptionForce: true}))

	_, err = storageBackend.ListDirectory("notebook")
	require.ErrorIs(t, err, backend.ErrNotFound)
	require.ErrorIs(t, storageBackend.DeleteDirectory("notebook"), backend.ErrNotFound)
}

func TestLocalBackendConfinesPaths(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(root, 0o755))

	storageBackend := NewLocal(root)

	// Escaping the root is cleaned away, not honored.
	require.NoError(t, storageBackend.CreateDirectory("../escaped"))

	exists, err := storageBackend.DirExists("escaped")
	require.NoError(t, err)
	require.True(t, exists)

	_, err = os.Stat(filepath.Join(root, "..", "escaped"))
	require.True(t, os.IsNotExist(err))

	require.ErrorIs(t, storageBackend.CreateDirectory(""), backend.ErrIllegalSpecification)
}
