package backend

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cachingBackend caches Inspect results. Mutating operations invalidate the
// cached record, and Status/IsRunning always go to the real backend: only the
// slow-changing parts of a record (name, image) are worth caching.
type cachingBackend struct {
	ContainerBackend
	cache *lru.Cache[string, Container]
}

var (
	_ ContainerBackend           = &cachingBackend{}
	_ CloneableContainerBackend  = &cachingBackend{}
	_ CommitableContainerBackend = &cachingBackend{}
)

func NewCaching(impl ContainerBackend) ContainerBackend {
	cache, err := lru.New[string, Container](128)
	if err != nil {
		panic(err)
	}
	return &cachingBackend{
		ContainerBackend: impl,
		cache:            cache,
	}
}

func (b *cachingBackend) Inspect(ctx context.Context, id string, opts ...Options) (Container, error) {
	if container, ok := b.cache.Get(id); ok {
		return container, nil
	}

	container, err := b.ContainerBackend.Inspect(ctx, id, opts...)
	if err != nil {
		return Container{}, err
	}

	b.cache.Add(id, container)
	if container.PK != id {
		b.cache.Add(container.PK, container)
	}
	return container, nil
}

func (b *cachingBackend) Delete(ctx context.Context, id string, opts ...Options) error {
	b.invalidate(id)
	return b.ContainerBackend.Delete(ctx, id, opts...)
}

func (b *cachingBackend) Start(ctx context.Context, id string, opts ...Options) error {
	b.invalidate(id)
	return b.ContainerBackend.Start(ctx, id, opts...)
}

func (b *cachingBackend) Stop(ctx context.Context, id string, opts ...Options) error {
	b.invalidate(id)
	return b.ContainerBackend.Stop(ctx, id, opts...)
}

func (b *cachingBackend) Restart(ctx context.Context, id string, opts ...Options) error {
	b.invalidate(id)
	return b.ContainerBackend.Restart(ctx, id, opts...)
}

// Clone and Commit forward to the wrapped backend when it supports the
// extension, so wrapping doesn't strip the optional interfaces.

func (b *cachingBackend) Clone(ctx context.Context, id string, opts ...Options) (Container, error) {
	impl, ok := b.ContainerBackend.(CloneableContainerBackend)
	if !ok {
		return Container{}, NewError(b.ContainerBackend.Name(), "clone", ErrUnsupported)
	}
	return impl.Clone(ctx, id, opts...)
}

func (b *cachingBackend) Commit(ctx context.Context, id string, opts ...Options) (Container, error) {
	impl, ok := b.ContainerBackend.(CommitableContainerBackend)
	if !ok {
		return Container{}, NewError(b.ContainerBackend.Name(), "commit", ErrUnsupported)
	}
	return impl.Commit(ctx, id, opts...)
}

func (b *cachingBackend) invalidate(id string) {
	if container, ok := b.cache.Get(id); ok {
		b.cache.Remove(container.PK)
	}
	b.cache.Remove(id)
}
