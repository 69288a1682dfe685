package backend

import (
	"context"
)

// defaultsBackend prepends a configured options bag to every operation, so
// deployment-wide knobs (pull policy, stop timeouts) apply without every
// caller repeating them. Per-call options win on conflicts.
type defaultsBackend struct {
	ContainerBackend
	defaults Options
}

var (
	_ ContainerBackend           = &defaultsBackend{}
	_ CloneableContainerBackend  = &defaultsBackend{}
	_ CommitableContainerBackend = &defaultsBackend{}
)

func WithDefaults(impl ContainerBackend, defaults Options) ContainerBackend {
	if len(defaults) == 0 {
		return impl
	}
	return &defaultsBackend{
		ContainerBackend: impl,
		defaults:         defaults,
	}
}

func (b *defaultsBackend) Status(ctx context.Context, id string, opts ...Options) (Status, error) {
	return b.ContainerBackend.Status(ctx, id, b.merge(opts))
}

func (b *defaultsBackend) IsRunning(ctx context.Context, id string, opts ...Options) (bool, error) {
	return b.ContainerBackend.IsRunning(ctx, id, b.merge(opts))
}

func (b *defaultsBackend) Create(ctx context.Context, spec ContainerSpec, opts ...Options) (Container, error) {
	return b.ContainerBackend.Create(ctx, spec, b.merge(opts))
}

func (b *defaultsBackend) Start(ctx context.Context, id string, opts ...Options) error {
	return b.ContainerBackend.Start(ctx, id, b.merge(opts))
}

func (b *defaultsBackend) Stop(ctx context.Context, id string, opts ...Options) error {
	return b.ContainerBackend.Stop(ctx, id, b.merge(opts))
}

func (b *defaultsBackend) Restart(ctx context.Context, id string, opts ...Options) error {
	return b.ContainerBackend.Restart(ctx, id, b.merge(opts))
}

func (b *defaultsBackend) Delete(ctx context.Context, id string, opts ...Options) error {
	return b.ContainerBackend.Delete(ctx, id, b.merge(opts))
}

func (b *defaultsBackend) Inspect(ctx context.Context, id string, opts ...Options) (Container, error) {
	return b.ContainerBackend.Inspect(ctx, id, b.merge(opts))
}

func (b *defaultsBackend) List(ctx context.Context, opts ...Options) ([]Container, error) {
	return b.ContainerBackend.List(ctx, b.merge(opts))
}

func (b *defaultsBackend) Clone(ctx context.Context, id string, opts ...Options) (Container, error) {
	impl, ok := b.ContainerBackend.(CloneableContainerBackend)
	if !ok {
		return Container{}, NewError(b.ContainerBackend.Name(), "clone", ErrUnsupported)
	}
	return impl.Clone(ctx, id, b.merge(opts))
}

func (b *defaultsBackend) Commit(ctx context.Context, id string, opts ...Options) (Container, error) {
	impl, ok := b.ContainerBackend.(CommitableContainerBackend)
	if !ok {
		return Container{}, NewError(b.ContainerBackend.Name(), "commit", ErrUnsupported)
	}
	return impl.Commit(ctx, id, b.merge(opts))
}

func (b *defaultsBackend) merge(opts []Options) Options {
	return Merge(append([]Options{b.defaults}, opts...)...)
}
