// Package users implements the user backend contract on top of the host's
// account database. The backend is read-only: accounts are managed by the
// operating system, not by coco.
package users

import (
	"errors"
	"io"
	users "os/user"
	"strings"
	"time"

	lru "github.com/hnlq715/golang-lru"
	"golang.org/x/xerrors"

	"github.com/ipynbsrv/coco/internal/backend"
	"github.com/ipynbsrv/coco/internal/util"
)

const backendName = "os-users"

type User struct {
	Name string
	UID  string
	Home string
}

// Backend resolves user accounts. Get accepts a username.
type Backend interface {
	Name() string

	Get(username string, opts ...backend.Options) (User, error)
	List(opts ...backend.Options) ([]User, error)

	// Authenticate always fails for the OS backend: password verification is
	// out of its reach.
	Authenticate(username string, password string, opts ...backend.Options) error

	// Update always fails: the backend is read-only.
	Update(user User, opts ...backend.Options) error
}

type osBackend struct {
	cache      *lru.Cache
	accountsDB string
}

var _ Backend = &osBackend{}

func New() Backend {
	cache, err := lru.NewWithExpire(32, time.Minute)
	if err != nil {
		panic(err)
	}
	return &osBackend{cache: cache, accountsDB: "/etc/passwd"}
}

func (b *osBackend) Name() string {
	return backendName
}

func (b *osBackend) Get(username string, opts ...backend.Options) (User, error) {
	if cached, ok := b.cache.Get(username); ok {
		return cached.(User), nil
	}

	account, err := users.Lookup(username)
	if err != nil {
		var unknownUserError users.UnknownUserError
		if errors.As(err, &unknownUserError) {
			return User{}, backend.WrapError(backendName, "get", backend.ErrNotFound, err)
		}
		return User{}, backend.WrapError(backendName, "get", backend.ErrConnection, err)
	}

	user := User{
		Name: account.Username,
		UID:  account.Uid,
		Home: account.HomeDir,
	}

	b.cache.Add(username, user)
	return user, nil
}

// List enumerates the account database directly: os/user resolves single
// accounts but has no enumeration API.
func (b *osBackend) List(opts ...backend.Options) ([]User, error) {
	var result []User

	if err := util.ReadFile(b.accountsDB, func(file io.Reader) error {
		return util.ParseFile(file, func(line string) error {
			if strings.HasPrefix(line, "#") {
				return nil
			}

			// name:password:UID:GID:GECOS:directory:shell
			fields := strings.Split(line, ":")
			if len(fields) < 6 {
				return xerrors.Errorf("Unexpected account database line: %q", line)
			}

			result = append(result, User{Name: fields[0], UID: fields[2], Home: fields[5]})
			return nil
		})
	}); err != nil {
		return nil, backend.WrapError(backendName, "list", backend.ErrConnection, err)
	}

	return result, nil
}

func (b *osBackend) Authenticate(username string, password string, opts ...backend.Options) error {
	if _, err := b.Get(username, opts...); err != nil {
		return err
	}
	return backend.NewError(backendName, "authenticate", backend.ErrAuthentication)
}

func (b *osBackend) Update(user User, opts ...backend.Options) error {
	return backend.NewError(backendName, "update", backend.ErrReadOnly)
}
