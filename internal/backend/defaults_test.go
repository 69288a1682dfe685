package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithDefaults(t *testing.T) {
	ctx := context.Background()
	wrapped := WithDefaults(NewMock(), Options{OptionForce: true})

	container, err := wrapped.Create(ctx, ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)

	// Stopping a container that isn't running needs force, which comes from
	// the configured defaults here.
	require.NoError(t, wrapped.Stop(ctx, container.PK))

	// Per-call options override the defaults.
	require.ErrorIs(t, wrapped.Stop(ctx, container.PK, Options{OptionForce: false}), ErrIllegalState)

	require.NoError(t, wrapped.Delete(ctx, container.PK))
}

func TestWithDefaultsExtensions(t *testing.T) {
	ctx := context.Background()
	wrapped := WithDefaults(NewMock(), Options{OptionTag: "v1"})

	container, err := wrapped.Create(ctx, ContainerSpec{Name: "notebook", Image: "busybox"})
	require.NoError(t, err)

	committed, err := wrapped.(CommitableContainerBackend).Commit(ctx, container.PK)
	require.NoError(t, err)

	image, ok := committed.Details.String(FieldImage)
	require.True(t, ok)
	require.Equal(t, "notebook:v1", image)

	clone, err := wrapped.(CloneableContainerBackend).Clone(ctx, container.PK)
	require.NoError(t, err)
	require.Equal(t, "notebook-clone", clone.Name)
}

func TestWithDefaultsEmpty(t *testing.T) {
	mock := NewMock()
	require.Same(t, mock, WithDefaults(mock, nil))
}
