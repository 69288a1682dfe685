package backend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestErrorWrapping(t *testing.T) {
	cause := xerrors.New("no such container")
	err := WrapError("docker", "inspect", ErrNotFound, cause)

	var wrapped *Error
	require.ErrorAs(t, err, &wrapped)
	require.Equal(t, "docker", wrapped.Backend)
	require.Equal(t, "inspect", wrapped.Operation)

	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrConnection)
}

func TestErrorWrappingIdempotent(t *testing.T) {
	inner := NewError("podman", "start", ErrIllegalState)
	outer := WrapError("podman", "restart", ErrConnection, inner)

	// The original operation context must be preserved.
	require.Same(t, inner, outer)
	require.ErrorIs(t, outer, ErrIllegalState)
}

func TestErrorWrappingThroughXerrors(t *testing.T) {
	err := NewError("mock", "stop", ErrIllegalState)
	annotated := xerrors.Errorf("Failed to stop the container: %w", err)

	require.ErrorIs(t, annotated, ErrIllegalState)

	var wrapped *Error
	require.True(t, errors.As(annotated, &wrapped))
	require.Equal(t, "mock", wrapped.Backend)
}

func TestErrorMessage(t *testing.T) {
	err := WrapError("docker", "create", ErrImageNotFound, xerrors.New("pull access denied"))
	require.Equal(t, "docker backend: create: pull access denied", err.Error())

	err = NewError("docker", "delete", ErrIllegalState)
	require.Equal(t, "docker backend: delete: illegal container state", err.Error())
}
