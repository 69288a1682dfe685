// Package podman implements the container backend contract on top of the
// Podman REST API.
package podman

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	nettypes "github.com/containers/common/libnetwork/types"
	"github.com/containers/podman/v5/pkg/bindings"
	"github.com/containers/podman/v5/pkg/bindings/containers"
	"github.com/containers/podman/v5/pkg/errorhandling"
	"github.com/containers/podman/v5/pkg/specgen"
	"github.com/samber/mo"

	"github.com/ipynbsrv/coco/internal/backend"
)

const backendName = "podman"

const defaultSocket = "unix:///run/podman/podman.sock"

type podmanBackend struct {
	lock          sync.Mutex
	uri           string
	clientContext mo.Option[context.Context]
}

var (
	_ backend.ContainerBackend           = &podmanBackend{}
	_ backend.CommitableContainerBackend = &podmanBackend{}
)

// New returns a Podman backend talking to the socket at uri (the default
// system socket when empty). options are deployment-wide defaults merged into
// every operation's options bag.
func New(uri string, options backend.Options) backend.ContainerBackend {
	if uri == "" {
		uri = defaultSocket
	}
	return backend.NewCaching(backend.WithDefaults(&podmanBackend{uri: uri}, options))
}

func (b *podmanBackend) Name() string {
	return backendName
}

func (b *podmanBackend) RequiredCreationFields() []string {
	return []string{backend.FieldName, backend.FieldImage}
}

func (b *podmanBackend) Status(_ context.Context, id string, opts ...backend.Options) (backend.Status, error) {
	conn, err := b.getClientContext()
	if err != nil {
		return "", backend.WrapError(backendName, "status", backend.ErrConnection, err)
	}

	info, err := containers.Inspect(conn, id, nil) //nolint:contextcheck
	if err != nil {
		return "", backend.WrapError(backendName, "status", errorKind(err), err)
	}

	status, err := backend.ParseStatus(info.State.Status)
	if err != nil {
		return "", backend.WrapError(backendName, "status", backend.ErrConnection, err)
	}
	return status, nil
}

func (b *podmanBackend) IsRunning(ctx context.Context, id string, opts ...backend.Options) (bool, error) {
	status, err := b.Status(ctx, id, opts...)
	if err != nil {
		return false, err
	}
	return status.IsRunning(), nil
}

func (b *podmanBackend) Create(ctx context.Context, spec backend.ContainerSpec, opts ...backend.Options) (backend.Container, error) {
	if err := spec.Validate(); err != nil {
		return backend.Container{}, backend.WrapError(backendName, "create", backend.ErrIllegalSpecification, err)
	}

	conn, err := b.getClientContext()
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "create", backend.ErrConnection, err)
	}

	generator := specgen.NewSpecGenerator(spec.Image, false)
	generator.Name = spec.Name
	generator.Command = spec.Cmd
	generator.Env = spec.Env

	for _, mapping := range spec.Ports {
		generator.PortMappings = append(generator.PortMappings, toPortMapping(mapping))
	}
	for _, volume := range spec.Volumes {
		generator.Volumes = append(generator.Volumes, &specgen.NamedVolume{
			Name: volume.Source,
			Dest: volume.Target,
		})
	}

	created, err := containers.CreateWithSpec(conn, generator, nil) //nolint:contextcheck
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "create", createErrorKind(err), err)
	}

	return b.Inspect(ctx, created.ID)
}

func (b *podmanBackend) Start(_ context.Context, id string, opts ...backend.Options) error {
	conn, err := b.getClientContext()
	if err != nil {
		return backend.WrapError(backendName, "start", backend.ErrConnection, err)
	}

	if err := containers.Start(conn, id, nil); err != nil { //nolint:contextcheck
		return backend.WrapError(backendName, "start", errorKind(err), err)
	}
	return nil
}

func (b *podmanBackend) Stop(_ context.Context, id string, opts ...backend.Options) error {
	options := backend.Merge(opts...)

	force, err := options.Bool(backend.OptionForce)
	if err != nil {
		return backend.WrapError(backendName, "stop", backend.ErrIllegalSpecification, err)
	}

	conn, err := b.getClientContext()
	if err != nil {
		return backend.WrapError(backendName, "stop", backend.ErrConnection, err)
	}

	if force {
		if err := containers.Kill(conn, id, new(containers.KillOptions).WithSignal("KILL")); err != nil { //nolint:contextcheck
			return backend.WrapError(backendName, "stop", errorKind(err), err)
		}
		return nil
	}

	timeout, err := options.Duration(backend.OptionStopTimeout, 10*time.Second)
	if err != nil {
		return backend.WrapError(backendName, "stop", backend.ErrIllegalSpecification, err)
	}

	stopOptions := new(containers.StopOptions).WithTimeout(uint(timeout / time.Second))
	if err := containers.Stop(conn, id, stopOptions); err != nil { //nolint:contextcheck
		return backend.WrapError(backendName, "stop", errorKind(err), err)
	}
	return nil
}

func (b *podmanBackend) Restart(_ context.Context, id string, opts ...backend.Options) error {
	conn, err := b.getClientContext()
	if err != nil {
		return backend.WrapError(backendName, "restart", backend.ErrConnection, err)
	}

	if err := containers.Restart(conn, id, nil); err != nil { //nolint:contextcheck
		return backend.WrapError(backendName, "restart", errorKind(err), err)
	}
	return nil
}

func (b *podmanBackend) Delete(_ context.Context, id string, opts ...backend.Options) error {
	force, err := backend.Merge(opts...).Bool(backend.OptionForce)
	if err != nil {
		return backend.WrapError(backendName, "delete", backend.ErrIllegalSpecification, err)
	}

	conn, err := b.getClientContext()
	if err != nil {
		return backend.WrapError(backendName, "delete", backend.ErrConnection, err)
	}

	if _, err := containers.Remove(conn, id, new(containers.RemoveOptions).WithForce(force)); err != nil { //nolint:contextcheck
		return backend.WrapError(backendName, "delete", errorKind(err), err)
	}
	return nil
}

func (b *podmanBackend) Inspect(_ context.Context, id string, opts ...backend.Options) (backend.Container, error) {
	conn, err := b.getClientContext()
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "inspect", backend.ErrConnection, err)
	}

	info, err := containers.Inspect(conn, id, nil) //nolint:contextcheck
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "inspect", errorKind(err), err)
	}

	status, err := backend.ParseStatus(info.State.Status)
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "inspect", backend.ErrConnection, err)
	}

	result := backend.Container{
		PK:     info.ID,
		Name:   info.Name,
		Image:  info.ImageName,
		Status: status,
	}

	extra := backend.Details{"temporary": info.HostConfig != nil && info.HostConfig.AutoRemove}
	if info.State.ExitCode != 0 {
		extra[backend.FieldExit] = int(info.State.ExitCode)
	}

	return result.WithDetails(extra), nil
}

func (b *podmanBackend) List(_ context.Context, opts ...backend.Options) ([]backend.Container, error) {
	conn, err := b.getClientContext()
	if err != nil {
		return nil, backend.WrapError(backendName, "list", backend.ErrConnection, err)
	}

	listed, err := containers.List(conn, new(containers.ListOptions).WithAll(true)) //nolint:contextcheck
	if err != nil {
		return nil, backend.WrapError(backendName, "list", errorKind(err), err)
	}

	result := make([]backend.Container, 0, len(listed))
	for _, info := range listed {
		status, err := backend.ParseStatus(info.State)
		if err != nil {
			return nil, backend.WrapError(backendName, "list", backend.ErrConnection, err)
		}

		var name string
		if len(info.Names) != 0 {
			name = info.Names[0]
		}

		result = append(result, backend.Container{
			PK:     info.ID,
			Name:   name,
			Image:  info.Image,
			Status: status,
		}.WithDetails(nil))
	}

	return result, nil
}

func (b *podmanBackend) Commit(ctx context.Context, id string, opts ...backend.Options) (backend.Container, error) {
	options := backend.Merge(opts...)

	tag, err := options.String(backend.OptionTag, "latest")
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "commit", backend.ErrIllegalSpecification, err)
	}

	info, err := b.Inspect(ctx, id)
	if err != nil {
		return backend.Container{}, err
	}

	conn, err := b.getClientContext()
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "commit", backend.ErrConnection, err)
	}

	commitOptions := new(containers.CommitOptions).WithRepo(info.Name).WithTag(tag)
	if _, err := containers.Commit(conn, id, commitOptions); err != nil { //nolint:contextcheck
		return backend.Container{}, backend.WrapError(backendName, "commit", errorKind(err), err)
	}

	reference := fmt.Sprintf("%s:%s", info.Name, tag)
	return info.WithDetails(backend.Details{backend.FieldImage: reference}), nil
}

func (b *podmanBackend) Close() error {
	return nil
}

func (b *podmanBackend) getClientContext() (context.Context, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	clientContext, ok := b.clientContext.Get()
	if ok {
		return clientContext, nil
	}

	clientContext, err := bindings.NewConnection(context.Background(), b.uri)
	if err != nil {
		return nil, err
	}
	b.clientContext = mo.Some(clientContext)

	return clientContext, nil
}

func toPortMapping(mapping backend.PortMapping) nettypes.PortMapping {
	return nettypes.PortMapping{
		HostPort:      mapping.Host,
		ContainerPort: mapping.Container,
		Protocol:      "tcp",
	}
}

func errorKind(err error) error {
	switch responseCode(err) {
	case http.StatusNotFound:
		return backend.ErrNotFound
	case http.StatusConflict, http.StatusNotModified:
		return backend.ErrIllegalState
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return backend.ErrIllegalSpecification
	case http.StatusUnauthorized, http.StatusForbidden:
		return backend.ErrAuthentication
	default:
		return backend.ErrConnection
	}
}

func responseCode(err error) int {
	var modelPtr *errorhandling.ErrorModel
	if errors.As(err, &modelPtr) {
		return modelPtr.ResponseCode
	}

	var model errorhandling.ErrorModel
	if errors.As(err, &model) {
		return model.ResponseCode
	}

	return 0
}

func createErrorKind(err error) error {
	kind := errorKind(err)
	if kind == backend.ErrNotFound {
		return backend.ErrImageNotFound
	}
	return kind
}
