// Package backend defines the contract between coco and pluggable container
// backends. A backend represents an external resource manager (Docker, Podman
// or anything else that can run containers): actions performed through the
// contract are reflected to the underlying engine.
package backend

import (
	"context"
)

type Backend interface {
	// Name returns the unique name the backend is registered under.
	Name() string

	Close() error
}

// ContainerBackend abstracts container/virtualization engines. All operations
// accept a trailing options bag so callers can pass backend-specific settings;
// each backend validates the options it consumes.
//
// Every returned error is wrapped into *Error, and every returned Container
// carries FieldPK and FieldStatus in its details.
type ContainerBackend interface {
	Backend

	Status(ctx context.Context, id string, opts ...Options) (Status, error)
	IsRunning(ctx context.Context, id string, opts ...Options) (bool, error)

	Create(ctx context.Context, spec ContainerSpec, opts ...Options) (Container, error)

	// Delete removes the container. With OptionForce it tries to delete the
	// container in any case (e.g. also if it is running).
	Delete(ctx context.Context, id string, opts ...Options) error

	Start(ctx context.Context, id string, opts ...Options) error

	// Stop stops the container. With OptionForce the container is killed
	// instead of being given a grace period.
	Stop(ctx context.Context, id string, opts ...Options) error

	Restart(ctx context.Context, id string, opts ...Options) error

	Inspect(ctx context.Context, id string, opts ...Options) (Container, error)
	List(ctx context.Context, opts ...Options) ([]Container, error)

	// RequiredCreationFields returns the container fields the backend can't create
	// a container without.
	RequiredCreationFields() []string
}

// CloneableContainerBackend extends the regular container backend with a way
// to duplicate existing containers.
type CloneableContainerBackend interface {
	ContainerBackend

	Clone(ctx context.Context, id string, opts ...Options) (Container, error)
}

// CommitableContainerBackend extends the regular container backend with a way
// to snapshot a container by committing it to an image.
type CommitableContainerBackend interface {
	ContainerBackend

	Commit(ctx context.Context, id string, opts ...Options) (Container, error)
}

// Restart composes stop and start for backends without a native restart
// implementation.
func Restart(ctx context.Context, b ContainerBackend, id string, opts ...Options) error {
	if err := b.Stop(ctx, id, opts...); err != nil {
		return err
	}
	return b.Start(ctx, id, opts...)
}
