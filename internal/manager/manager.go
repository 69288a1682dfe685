// Package manager orchestrates container operations: it resolves which
// backend owns a container, drives the backend through the contract and keeps
// the persistent record store in sync with what the backend reports.
package manager

import (
	"context"
	"errors"

	"golang.org/x/xerrors"

	"github.com/ipynbsrv/coco/internal/backend"
	"github.com/ipynbsrv/coco/internal/logging"
	"github.com/ipynbsrv/coco/internal/metrics"
	"github.com/ipynbsrv/coco/internal/registry"
	"github.com/ipynbsrv/coco/internal/storage"
	"github.com/ipynbsrv/coco/internal/store"
)

type Manager struct {
	registry *registry.Registry
	store    *store.Store

	// storage, when set, provides a per-container data directory keyed by the
	// record's PK.
	storage storage.Backend
}

func New(reg *registry.Registry, containerStore *store.Store, dataStorage storage.Backend) *Manager {
	return &Manager{
		registry: reg,
		store:    containerStore,
		storage:  dataStorage,
	}
}

func (m *Manager) Backends() []string {
	return m.registry.Names()
}

func (m *Manager) RequiredCreationFields(backendName string) ([]string, error) {
	b, err := m.registry.Get(backendName)
	if err != nil {
		return nil, err
	}
	return b.RequiredCreationFields(), nil
}

func (m *Manager) Create(ctx context.Context, backendName string, spec backend.ContainerSpec, opts ...backend.Options) (store.Record, error) {
	b, err := m.registry.Get(backendName)
	if err != nil {
		return store.Record{}, err
	}

	if _, err := m.store.GetByName(spec.Name); err == nil {
		return store.Record{}, backend.NewError(backendName, "create", backend.ErrIllegalSpecification)
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return store.Record{}, err
	}

	container, err := m.observe(ctx, b, "create", func() (backend.Container, error) {
		return b.Create(ctx, spec, opts...)
	})
	if err != nil {
		return store.Record{}, err
	}

	record := store.Record{
		PK:        store.NewPK(),
		Name:      container.Name,
		Backend:   backendName,
		BackendPK: container.PK,
		Image:     container.Image,
		Status:    container.Status,
	}
	if err := m.store.Save(record); err != nil {
		return store.Record{}, err
	}
	if err := m.createDataDirectory(ctx, record); err != nil {
		return store.Record{}, err
	}

	logging.L(ctx).Infof("Created container %q (%s on %s).", record.Name, record.PK, backendName)
	return record, nil
}

func (m *Manager) Start(ctx context.Context, id string, opts ...backend.Options) error {
	return m.lifecycle(ctx, id, "start", opts, func(b backend.ContainerBackend, record store.Record) error {
		return b.Start(ctx, record.BackendPK, opts...)
	})
}

func (m *Manager) Stop(ctx context.Context, id string, opts ...backend.Options) error {
	return m.lifecycle(ctx, id, "stop", opts, func(b backend.ContainerBackend, record store.Record) error {
		return b.Stop(ctx, record.BackendPK, opts...)
	})
}

func (m *Manager) Restart(ctx context.Context, id string, opts ...backend.Options) error {
	return m.lifecycle(ctx, id, "restart", opts, func(b backend.ContainerBackend, record store.Record) error {
		return b.Restart(ctx, record.BackendPK, opts...)
	})
}

func (m *Manager) Delete(ctx context.Context, id string, opts ...backend.Options) error {
	record, b, err := m.resolve(id)
	if err != nil {
		return err
	}

	metrics.BackendOperationsMetric.WithLabelValues(record.Backend, "delete").Inc()
	if err := b.Delete(ctx, record.BackendPK, opts...); err != nil {
		metrics.BackendErrorsMetric.WithLabelValues(record.Backend, "delete").Inc()

		// The backend may have lost the container (e.g. a temporary one
		// that auto-removed itself). The record is stale then.
		if !errors.Is(err, backend.ErrNotFound) {
			return err
		}
		logging.L(ctx).Warnf("Container %q is gone from %s backend. Dropping a stale record.", record.Name, record.Backend)
	}

	if err := m.store.Delete(record.PK); err != nil {
		return err
	}
	if m.storage != nil {
		err := m.storage.DeleteDirectory(record.PK, backend.Options{backend.OptionForce: true})
		if err != nil && !errors.Is(err, backend.ErrNotFound) {
			return err
		}
	}

	logging.L(ctx).Infof("Deleted container %q (%s).", record.Name, record.PK)
	return nil
}

// Get returns the container record with its status freshly synced from the
// owning backend.
func (m *Manager) Get(ctx context.Context, id string) (store.Record, error) {
	record, b, err := m.resolve(id)
	if err != nil {
		return store.Record{}, err
	}

	metrics.BackendOperationsMetric.WithLabelValues(record.Backend, "status").Inc()
	status, err := b.Status(ctx, record.BackendPK)
	if err != nil {
		metrics.BackendErrorsMetric.WithLabelValues(record.Backend, "status").Inc()
		return store.Record{}, err
	}

	if status != record.Status {
		if err := m.store.SetStatus(record.PK, status); err != nil {
			return store.Record{}, err
		}
		record.Status = status
	}

	return record, nil
}

func (m *Manager) List(ctx context.Context) ([]store.Record, error) {
	return m.store.List()
}

func (m *Manager) Clone(ctx context.Context, id string, opts ...backend.Options) (store.Record, error) {
	record, b, err := m.resolve(id)
	if err != nil {
		return store.Record{}, err
	}

	cloneable, ok := b.(backend.CloneableContainerBackend)
	if !ok {
		return store.Record{}, backend.NewError(record.Backend, "clone", backend.ErrUnsupported)
	}

	container, err := m.observe(ctx, b, "clone", func() (backend.Container, error) {
		return cloneable.Clone(ctx, record.BackendPK, opts...)
	})
	if err != nil {
		return store.Record{}, err
	}

	clone := store.Record{
		PK:        store.NewPK(),
		Name:      container.Name,
		Backend:   record.Backend,
		BackendPK: container.PK,
		Image:     container.Image,
		Status:    container.Status,
	}
	if err := m.store.Save(clone); err != nil {
		return store.Record{}, err
	}
	if err := m.createDataDirectory(ctx, clone); err != nil {
		return store.Record{}, err
	}

	logging.L(ctx).Infof("Cloned container %q into %q (%s).", record.Name, clone.Name, clone.PK)
	return clone, nil
}

// Commit snapshots the container and returns the resulting image reference.
func (m *Manager) Commit(ctx context.Context, id string, opts ...backend.Options) (string, error) {
	record, b, err := m.resolve(id)
	if err != nil {
		return "", err
	}

	commitable, ok := b.(backend.CommitableContainerBackend)
	if !ok {
		return "", backend.NewError(record.Backend, "commit", backend.ErrUnsupported)
	}

	container, err := m.observe(ctx, b, "commit", func() (backend.Container, error) {
		return commitable.Commit(ctx, record.BackendPK, opts...)
	})
	if err != nil {
		return "", err
	}

	image, ok := container.Details.String(backend.FieldImage)
	if !ok {
		return "", xerrors.Errorf("%q backend returned a commit result without an image", record.Backend)
	}

	logging.L(ctx).Infof("Committed container %q to %q.", record.Name, image)
	return image, nil
}

func (m *Manager) lifecycle(
	ctx context.Context, id string, operation string, opts []backend.Options,
	action func(b backend.ContainerBackend, record store.Record) error,
) error {
	record, b, err := m.resolve(id)
	if err != nil {
		return err
	}

	metrics.BackendOperationsMetric.WithLabelValues(record.Backend, operation).Inc()
	if err := action(b, record); err != nil {
		metrics.BackendErrorsMetric.WithLabelValues(record.Backend, operation).Inc()
		return err
	}

	status, err := b.Status(ctx, record.BackendPK)
	if err != nil {
		return err
	}
	if err := m.store.SetStatus(record.PK, status); err != nil {
		return err
	}

	logging.L(ctx).Debugf("Container %q: %s -> %s.", record.Name, operation, status)
	return nil
}

func (m *Manager) createDataDirectory(ctx context.Context, record store.Record) error {
	if m.storage == nil {
		return nil
	}

	if err := m.storage.CreateDirectory(record.PK); err != nil {
		return err
	}

	logging.L(ctx).Debugf("Created a data directory for container %q (%s).", record.Name, record.PK)
	return nil
}

func (m *Manager) resolve(id string) (store.Record, backend.ContainerBackend, error) {
	record, err := m.store.Get(id)
	if errors.Is(err, store.ErrRecordNotFound) {
		record, err = m.store.GetByName(id)
	}
	if err != nil {
		return store.Record{}, nil, err
	}

	b, err := m.registry.Get(record.Backend)
	if err != nil {
		return store.Record{}, nil, err
	}

	return record, b, nil
}

func (m *Manager) observe(
	ctx context.Context, b backend.ContainerBackend, operation string,
	call func() (backend.Container, error),
) (backend.Container, error) {
	metrics.BackendOperationsMetric.WithLabelValues(b.Name(), operation).Inc()

	container, err := call()
	if err != nil {
		metrics.BackendErrorsMetric.WithLabelValues(b.Name(), operation).Inc()
		return backend.Container{}, err
	}

	// The contract promises the required fields in every result record.
	if err := container.Details.Validate(backend.FieldPK, backend.FieldStatus); err != nil {
		return backend.Container{}, xerrors.Errorf("%q backend returned an invalid result record: %w", b.Name(), err)
	}

	return container, nil
}
