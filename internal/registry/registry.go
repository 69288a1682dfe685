// Package registry keeps track of the container backends the daemon knows
// about.
package registry

import (
	"errors"
	"sort"
	"sync"

	"golang.org/x/xerrors"

	"github.com/ipynbsrv/coco/internal/backend"
)

var (
	ErrBackendExists   = errors.New("backend with this name is already registered")
	ErrBackendNotExist = errors.New("backend is not registered")
)

type Registry struct {
	lock     sync.Mutex
	backends map[string]backend.ContainerBackend
}

func New() *Registry {
	return &Registry{
		backends: make(map[string]backend.ContainerBackend),
	}
}

func (r *Registry) Register(b backend.ContainerBackend) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	name := b.Name()
	if _, ok := r.backends[name]; ok {
		return xerrors.Errorf("Failed to register %q backend: %w", name, ErrBackendExists)
	}

	r.backends[name] = b
	return nil
}

func (r *Registry) Get(name string) (backend.ContainerBackend, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	b, ok := r.backends[name]
	if !ok {
		return nil, xerrors.Errorf("Failed to get %q backend: %w", name, ErrBackendNotExist)
	}
	return b, nil
}

func (r *Registry) Names() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Close closes all registered backends and returns the first error it met.
func (r *Registry) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	var resErr error
	for name, b := range r.backends {
		if err := b.Close(); err != nil && resErr == nil {
			resErr = xerrors.Errorf("Failed to close %q backend: %w", name, err)
		}
	}

	r.backends = make(map[string]backend.ContainerBackend)
	return resErr
}
