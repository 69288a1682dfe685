package users

import (
	"sort"

	"github.com/ipynbsrv/coco/internal/backend"
)

type backendMock struct {
	users     map[string]User
	passwords map[string]string
}

func NewMock(users map[string]User, passwords map[string]string) Backend {
	return &backendMock{users: users, passwords: passwords}
}

func (b *backendMock) Name() string {
	return "mock"
}

func (b *backendMock) Get(username string, opts ...backend.Options) (User, error) {
	user, ok := b.users[username]
	if !ok {
		return User{}, backend.NewError(b.Name(), "get", backend.ErrNotFound)
	}
	return user, nil
}

func (b *backendMock) List(opts ...backend.Options) ([]User, error) {
	result := make([]User, 0, len(b.users))
	for _, user := range b.users {
		result = append(result, user)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (b *backendMock) Authenticate(username string, password string, opts ...backend.Options) error {
	expected, ok := b.passwords[username]
	if !ok || expected != password {
		return backend.NewError(b.Name(), "authenticate", backend.ErrAuthentication)
	}
	return nil
}

func (b *backendMock) Update(user User, opts ...backend.Options) error {
	return backend.NewError(b.Name(), "update", backend.ErrReadOnly)
}
