package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ipynbsrv/coco/internal/backend"
)

func openTestStore(t *testing.T) *Store {
	store, err := Open(filepath.Join(t.TempDir(), "coco.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestStore(t *testing.T) {
	store := openTestStore(t)

	record := Record{
		PK:        NewPK(),
		Name:      "notebook",
		Backend:   "docker",
		BackendPK: "3413aa74fd2f",
		Image:     "ubuntu:24.04",
		Status:    backend.StatusCreated,
	}
	require.NoError(t, store.Save(record))

	stored, err := store.Get(record.PK)
	require.NoError(t, err)
	require.Equal(t, record.Name, stored.Name)
	require.Equal(t, backend.StatusCreated, stored.Status)
	require.False(t, stored.CreatedAt.IsZero())

	byName, err := store.GetByName("notebook")
	require.NoError(t, err)
	require.Equal(t, record.PK, byName.PK)

	require.NoError(t, store.SetStatus(record.PK, backend.StatusRunning))

	stored, err = store.Get(record.PK)
	require.NoError(t, err)
	require.Equal(t, backend.StatusRunning, stored.Status)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, store.Delete(record.PK))
	require.ErrorIs(t, store.Delete(record.PK), ErrRecordNotFound)

	_, err = store.Get(record.PK)
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestStoreNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get("no-such-pk")
	require.ErrorIs(t, err, ErrRecordNotFound)

	_, err = store.GetByName("no-such-name")
	require.ErrorIs(t, err, ErrRecordNotFound)

	require.ErrorIs(t, store.SetStatus("no-such-pk", backend.StatusDead), ErrRecordNotFound)
}

func TestStoreDetails(t *testing.T) {
	record := Record{
		PK:        "pk",
		Name:      "notebook",
		Backend:   "mock",
		BackendPK: "mock-1",
		Image:     "busybox",
		Status:    backend.StatusExited,
	}

	details := record.Details()
	require.NoError(t, details.Validate(backend.FieldPK, backend.FieldStatus))

	status, ok := details.Status()
	require.True(t, ok)
	require.Equal(t, backend.StatusExited, status)
}
