package backend

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	ContainerBackend
	inspects atomic.Int64
}

func (b *countingBackend) Inspect(ctx context.Context, id string, opts ...Options) (Container, error) {
	b.inspects.Add(1)
	return b.ContainerBackend.Inspect(ctx, id, opts...)
}

func TestCachingBackend(t *testing.T) {
	ctx := context.Background()

	counting := &countingBackend{ContainerBackend: NewMock()}
	cached := NewCaching(counting)

	container, err := cached.Create(ctx, ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)

	for range 3 {
		inspected, err := cached.Inspect(ctx, container.PK)
		require.NoError(t, err)
		require.Equal(t, container.PK, inspected.PK)
	}
	require.EqualValues(t, 1, counting.inspects.Load())

	// Mutations invalidate the cached record.
	require.NoError(t, cached.Start(ctx, container.PK))

	inspected, err := cached.Inspect(ctx, container.PK)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, inspected.Status)
	require.EqualValues(t, 2, counting.inspects.Load())
}

func TestCachingBackendNameAlias(t *testing.T) {
	ctx := context.Background()

	counting := &countingBackend{ContainerBackend: NewMock()}
	cached := NewCaching(counting)

	container, err := cached.Create(ctx, ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)

	byName, err := cached.Inspect(ctx, "notebook")
	require.NoError(t, err)
	require.Equal(t, container.PK, byName.PK)

	// The record is now cached under both the name and the PK.
	_, err = cached.Inspect(ctx, container.PK)
	require.NoError(t, err)
	require.EqualValues(t, 1, counting.inspects.Load())
}
