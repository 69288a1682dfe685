package backend

import (
	"context"
	"fmt"
	"sync"
)

// Mock is an in-memory container backend with real lifecycle semantics. It's
// used by tests and by the daemon's devel mode.
type Mock struct {
	lock       sync.Mutex
	name       string
	nextPK     int
	containers map[string]*Container
	images     map[string]struct{}
}

var (
	_ ContainerBackend           = &Mock{}
	_ CloneableContainerBackend  = &Mock{}
	_ CommitableContainerBackend = &Mock{}
)

func NewMock(images ...string) *Mock {
	known := make(map[string]struct{})
	for _, image := range images {
		known[image] = struct{}{}
	}
	return &Mock{
		name:       "mock",
		containers: make(map[string]*Container),
		images:     known,
	}
}

func (m *Mock) Name() string {
	return m.name
}

func (m *Mock) RequiredCreationFields() []string {
	return []string{FieldName, FieldImage}
}

func (m *Mock) Status(ctx context.Context, id string, opts ...Options) (Status, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	container, err := m.get(id, "status")
	if err != nil {
		return "", err
	}
	return container.Status, nil
}

func (m *Mock) IsRunning(ctx context.Context, id string, opts ...Options) (bool, error) {
	status, err := m.Status(ctx, id, opts...)
	if err != nil {
		return false, err
	}
	return status.IsRunning(), nil
}

func (m *Mock) Create(ctx context.Context, spec ContainerSpec, opts ...Options) (Container, error) {
	if err := spec.Validate(); err != nil {
		return Container{}, WrapError(m.name, "create", ErrIllegalSpecification, err)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if len(m.images) != 0 {
		if _, ok := m.images[spec.Image]; !ok {
			return Container{}, NewError(m.name, "create", ErrImageNotFound)
		}
	}

	for _, container := range m.containers {
		if container.Name == spec.Name {
			return Container{}, NewError(m.name, "create", ErrIllegalSpecification)
		}
	}

	m.nextPK++
	container := &Container{
		PK:     fmt.Sprintf("mock-%d", m.nextPK),
		Name:   spec.Name,
		Image:  spec.Image,
		Status: StatusCreated,
	}
	m.containers[container.PK] = container

	return container.WithDetails(nil), nil
}

func (m *Mock) Start(ctx context.Context, id string, opts ...Options) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	container, err := m.get(id, "start")
	if err != nil {
		return err
	}

	if container.Status.IsRunning() {
		return NewError(m.name, "start", ErrIllegalState)
	}

	container.Status = StatusRunning
	return nil
}

func (m *Mock) Stop(ctx context.Context, id string, opts ...Options) error {
	force, err := Merge(opts...).Bool(OptionForce)
	if err != nil {
		return WrapError(m.name, "stop", ErrIllegalSpecification, err)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	container, getErr := m.get(id, "stop")
	if getErr != nil {
		return getErr
	}

	if !container.Status.IsRunning() && !force {
		return NewError(m.name, "stop", ErrIllegalState)
	}

	container.Status = StatusExited
	return nil
}

func (m *Mock) Restart(ctx context.Context, id string, opts ...Options) error {
	return Restart(ctx, m, id, opts...)
}

func (m *Mock) Delete(ctx context.Context, id string, opts ...Options) error {
	force, err := Merge(opts...).Bool(OptionForce)
	if err != nil {
		return WrapError(m.name, "delete", ErrIllegalSpecification, err)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	container, getErr := m.get(id, "delete")
	if getErr != nil {
		return getErr
	}

	if container.Status.IsRunning() && !force {
		return NewError(m.name, "delete", ErrIllegalState)
	}

	delete(m.containers, container.PK)
	return nil
}

func (m *Mock) Inspect(ctx context.Context, id string, opts ...Options) (Container, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	container, err := m.get(id, "inspect")
	if err != nil {
		return Container{}, err
	}
	return container.WithDetails(nil), nil
}

func (m *Mock) List(ctx context.Context, opts ...Options) ([]Container, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	containers := make([]Container, 0, len(m.containers))
	for _, container := range m.containers {
		containers = append(containers, container.WithDetails(nil))
	}
	return containers, nil
}

func (m *Mock) Clone(ctx context.Context, id string, opts ...Options) (Container, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	container, err := m.get(id, "clone")
	if err != nil {
		return Container{}, err
	}

	m.nextPK++
	clone := &Container{
		PK:     fmt.Sprintf("mock-%d", m.nextPK),
		Name:   fmt.Sprintf("%s-clone", container.Name),
		Image:  container.Image,
		Status: StatusCreated,
	}
	m.containers[clone.PK] = clone

	return clone.WithDetails(nil), nil
}

func (m *Mock) Commit(ctx context.Context, id string, opts ...Options) (Container, error) {
	tag, err := Merge(opts...).String(OptionTag, "latest")
	if err != nil {
		return Container{}, WrapError(m.name, "commit", ErrIllegalSpecification, err)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	container, getErr := m.get(id, "commit")
	if getErr != nil {
		return Container{}, getErr
	}

	image := fmt.Sprintf("%s:%s", container.Name, tag)
	m.images[image] = struct{}{}

	return container.WithDetails(Details{FieldImage: image}), nil
}

func (m *Mock) Close() error {
	return nil
}

// get expects m.lock to be held.
func (m *Mock) get(id string, operation string) (*Container, error) {
	if container, ok := m.containers[id]; ok {
		return container, nil
	}

	for _, container := range m.containers {
		if container.Name == id {
			return container, nil
		}
	}

	return nil, NewError(m.name, operation, ErrNotFound)
}
