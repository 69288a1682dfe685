// Package storage implements the storage backend contract on the local
// filesystem. It manages the directories containers get their data from.
package storage

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/ipynbsrv/coco/internal/backend"
)

const backendName = "local-storage"

type Backend interface {
	Name() string

	CreateDirectory(name string, opts ...backend.Options) error
	DeleteDirectory(name string, opts ...backend.Options) error
	ListDirectory(name string, opts ...backend.Options) ([]string, error)
	DirExists(name string) (bool, error)
}

type localBackend struct {
	root string
}

var _ Backend = &localBackend{}

func NewLocal(root string) Backend {
	return &localBackend{root: root}
}

func (b *localBackend) Name() string {
	return backendName
}

func (b *localBackend) CreateDirectory(name string, opts ...backend.Options) error {
	path, err := b.path(name, "create directory")
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return backend.NewError(backendName, "create directory", backend.ErrIllegalState)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return backend.WrapError(backendName, "create directory", backend.ErrConnection, err)
	}
	return nil
}

func (b *localBackend) DeleteDirectory(name string, opts ...backend.Options) error {
	force, err := backend.Merge(opts...).Bool(backend.OptionForce)
	if err != nil {
		return backend.WrapError(backendName, "delete directory", backend.ErrIllegalSpecification, err)
	}

	path, pathErr := b.path(name, "delete directory")
	if pathErr != nil {
		return pathErr
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return backend.WrapError(backendName, "delete directory", backend.ErrNotFound, err)
	} else if err != nil {
		return backend.WrapError(backendName, "delete directory", backend.ErrConnection, err)
	}

	if force {
		if err := os.RemoveAll(path); err != nil {
			return backend.WrapError(backendName, "delete directory", backend.ErrConnection, err)
		}
		return nil
	}

	// Without force only empty directories are deleted.
	if err := os.Remove(path); err != nil {
		return backend.WrapError(backendName, "delete directory", backend.ErrIllegalState, err)
	}
	return nil
}

func (b *localBackend) ListDirectory(name string, opts ...backend.Options) ([]string, error) {
	path, err := b.path(name, "list directory")
	if err != nil {
		return nil, err
	}

	entries, readErr := os.ReadDir(path)
	if os.IsNotExist(readErr) {
		return nil, backend.WrapError(backendName, "list directory", backend.ErrNotFound, readErr)
	} else if readErr != nil {
		return nil, backend.WrapError(backendName, "list directory", backend.ErrConnection, readErr)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	sort.Strings(names)
	return names, nil
}

func (b *localBackend) DirExists(name string) (bool, error) {
	path, err := b.path(name, "stat directory")
	if err != nil {
		return false, err
	}

	info, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		return false, nil
	} else if statErr != nil {
		return false, backend.WrapError(backendName, "stat directory", backend.ErrConnection, statErr)
	}

	return info.IsDir(), nil
}

// path confines directory names to the backend's root: ".." components are
// cleaned away relative to the root, not to the filesystem.
func (b *localBackend) path(name string, operation string) (string, error) {
	if name == "" {
		return "", backend.NewError(backendName, operation, backend.ErrIllegalSpecification)
	}
	return filepath.Join(b.root, filepath.Clean("/"+name)), nil
}
