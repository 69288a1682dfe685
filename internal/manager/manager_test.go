package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ipynbsrv/coco/internal/backend"
	"github.com/ipynbsrv/coco/internal/logging"
	"github.com/ipynbsrv/coco/internal/registry"
	"github.com/ipynbsrv/coco/internal/storage"
	"github.com/ipynbsrv/coco/internal/store"
)

func newTestManager(t *testing.T) (context.Context, *Manager) {
	ctx, manager, _ := newTestManagerWithStorage(t)
	return ctx, manager
}

func newTestManagerWithStorage(t *testing.T) (context.Context, *Manager, string) {
	logger, err := logging.Configure(true)
	require.NoError(t, err)
	ctx := logging.WithLogger(context.Background(), logger)

	containerStore, err := store.Open(filepath.Join(t.TempDir(), "coco.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, containerStore.Close())
	})

	reg := registry.New()
	require.NoError(t, reg.Register(backend.NewMock()))

	storageRoot := t.TempDir()
	return ctx, New(reg, containerStore, storage.NewLocal(storageRoot)), storageRoot
}

func TestManagerLifecycle(t *testing.T) {
	ctx, manager := newTestManager(t)

	record, err := manager.Create(ctx, "mock", backend.ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)
	require.Equal(t, backend.StatusCreated, record.Status)
	require.Equal(t, "mock", record.Backend)
	require.NotEmpty(t, record.BackendPK)

	require.NoError(t, manager.Start(ctx, record.PK))

	synced, err := manager.Get(ctx, record.PK)
	require.NoError(t, err)
	require.Equal(t, backend.StatusRunning, synced.Status)

	// Both PK and name resolve the container.
	byName, err := manager.Get(ctx, "notebook")
	require.NoError(t, err)
	require.Equal(t, record.PK, byName.PK)

	require.ErrorIs(t, manager.Start(ctx, record.PK), backend.ErrIllegalState)
	require.ErrorIs(t, manager.Delete(ctx, record.PK), backend.ErrIllegalState)

	require.NoError(t, manager.Stop(ctx, record.PK))
	require.NoError(t, manager.Delete(ctx, record.PK))

	_, err = manager.Get(ctx, record.PK)
	require.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestManagerCreateErrors(t *testing.T) {
	ctx, manager := newTestManager(t)

	_, err := manager.Create(ctx, "no-such-backend", backend.ContainerSpec{Name: "notebook", Image: "busybox"})
	require.ErrorIs(t, err, registry.ErrBackendNotExist)

	_, err = manager.Create(ctx, "mock", backend.ContainerSpec{Name: "invalid name", Image: "busybox"})
	require.ErrorIs(t, err, backend.ErrIllegalSpecification)

	_, err = manager.Create(ctx, "mock", backend.ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)

	// Container names are unique across backends.
	_, err = manager.Create(ctx, "mock", backend.ContainerSpec{Name: "notebook", Image: "busybox"})
	require.ErrorIs(t, err, backend.ErrIllegalSpecification)
}

func TestManagerRestart(t *testing.T) {
	ctx, manager := newTestManager(t)

	record, err := manager.Create(ctx, "mock", backend.ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)
	require.NoError(t, manager.Start(ctx, record.PK))

	require.NoError(t, manager.Restart(ctx, record.PK))

	synced, err := manager.Get(ctx, record.PK)
	require.NoError(t, err)
	require.Equal(t, backend.StatusRunning, synced.Status)
}

func TestManagerCloneCommit(t *testing.T) {
	ctx, manager := newTestManager(t)

	record, err := manager.Create(ctx, "mock", backend.ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)

	clone, err := manager.Clone(ctx, record.PK)
	require.NoError(t, err)
	require.NotEqual(t, record.PK, clone.PK)
	require.Equal(t, record.Image, clone.Image)

	records, err := manager.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	image, err := manager.Commit(ctx, record.PK, backend.Options{backend.OptionTag: "v1"})
	require.NoError(t, err)
	require.Equal(t, "notebook:v1", image)
}

func TestManagerForceDelete(t *testing.T) {
	ctx, manager := newTestManager(t)

	record, err := manager.Create(ctx, "mock", backend.ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)
	require.NoError(t, manager.Start(ctx, record.PK))

	require.NoError(t, manager.Delete(ctx, record.PK, backend.Options{backend.OptionForce: true}))

	records, err := manager.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestManagerStaleRecord(t *testing.T) {
	ctx, manager := newTestManager(t)

	record, err := manager.Create(ctx, "mock", backend.ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)

	// Remove the container behind the manager's back.
	mock, err := manager.registry.Get("mock")
	require.NoError(t, err)
	require.NoError(t, mock.Delete(ctx, record.BackendPK))

	// Deleting a stale record drops it instead of failing.
	require.NoError(t, manager.Delete(ctx, record.PK))

	records, err := manager.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestManagerDataDirectories(t *testing.T) {
	ctx, manager, storageRoot := newTestManagerWithStorage(t)

	record, err := manager.Create(ctx, "mock", backend.ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)
	require.DirExists(t, filepath.Join(storageRoot, record.PK))

	clone, err := manager.Clone(ctx, record.PK)
	require.NoError(t, err)
	require.DirExists(t, filepath.Join(storageRoot, clone.PK))

	// Deleting the container takes its data directory with it, even a
	// non-empty one.
	require.NoError(t, os.WriteFile(
		filepath.Join(storageRoot, record.PK, "marker"), []byte("data"), 0o644))
	require.NoError(t, manager.Delete(ctx, record.PK))
	require.NoDirExists(t, filepath.Join(storageRoot, record.PK))
}

func TestManagerRequiredCreationFields(t *testing.T) {
	_, manager := newTestManager(t)

	fields, err := manager.RequiredCreationFields("mock")
	require.NoError(t, err)
	require.Equal(t, []string{backend.FieldName, backend.FieldImage}, fields)

	_, err = manager.RequiredCreationFields("docker")
	require.ErrorIs(t, err, registry.ErrBackendNotExist)
}
