// Package docker implements the container backend contract on top of the
// Docker Engine API.
package docker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"

	"github.com/ipynbsrv/coco/internal/backend"
)

const backendName = "docker"

type dockerBackend struct {
	lock   sync.Mutex
	client *client.Client
}

var (
	_ backend.ContainerBackend           = &dockerBackend{}
	_ backend.CloneableContainerBackend  = &dockerBackend{}
	_ backend.CommitableContainerBackend = &dockerBackend{}
)

// New returns a Docker backend. options are deployment-wide defaults merged
// into every operation's options bag.
func New(options backend.Options) backend.ContainerBackend {
	return backend.NewCaching(backend.WithDefaults(&dockerBackend{}, options))
}

func (b *dockerBackend) Name() string {
	return backendName
}

func (b *dockerBackend) RequiredCreationFields() []string {
	return []string{backend.FieldName, backend.FieldImage}
}

func (b *dockerBackend) Status(ctx context.Context, id string, opts ...backend.Options) (backend.Status, error) {
	info, err := b.inspect(ctx, id, "status")
	if err != nil {
		return "", err
	}

	status, err := backend.ParseStatus(info.State.Status)
	if err != nil {
		return "", backend.WrapError(backendName, "status", backend.ErrConnection, err)
	}
	return status, nil
}

func (b *dockerBackend) IsRunning(ctx context.Context, id string, opts ...backend.Options) (bool, error) {
	status, err := b.Status(ctx, id, opts...)
	if err != nil {
		return false, err
	}
	return status.IsRunning(), nil
}

func (b *dockerBackend) Create(ctx context.Context, spec backend.ContainerSpec, opts ...backend.Options) (backend.Container, error) {
	if err := spec.Validate(); err != nil {
		return backend.Container{}, backend.WrapError(backendName, "create", backend.ErrIllegalSpecification, err)
	}

	options := backend.Merge(opts...)
	pull, err := options.Bool(backend.OptionPull)
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "create", backend.ErrIllegalSpecification, err)
	}

	cli, err := b.getClient()
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "create", backend.ErrConnection, err)
	}

	if err := b.ensureImage(ctx, cli, spec.Image, pull); err != nil {
		return backend.Container{}, err
	}

	config := &container.Config{
		Image: spec.Image,
		Cmd:   spec.Cmd,
		Env:   makeEnv(spec.Env),
	}

	hostConfig := &container.HostConfig{}
	for _, volume := range spec.Volumes {
		hostConfig.Binds = append(hostConfig.Binds, fmt.Sprintf("%s:%s", volume.Source, volume.Target))
	}

	if len(spec.Ports) != 0 {
		config.ExposedPorts = make(nat.PortSet)
		hostConfig.PortBindings = make(nat.PortMap)

		for _, mapping := range spec.Ports {
			port := nat.Port(fmt.Sprintf("%d/tcp", mapping.Container))
			config.ExposedPorts[port] = struct{}{}
			hostConfig.PortBindings[port] = []nat.PortBinding{
				{HostPort: fmt.Sprintf("%d", mapping.Host)},
			}
		}
	}

	created, err := cli.ContainerCreate(ctx, config, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "create", createErrorKind(err), err)
	}

	return b.Inspect(ctx, created.ID)
}

func (b *dockerBackend) Start(ctx context.Context, id string, opts ...backend.Options) error {
	cli, err := b.getClient()
	if err != nil {
		return backend.WrapError(backendName, "start", backend.ErrConnection, err)
	}

	if err := cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return backend.WrapError(backendName, "start", errorKind(err), err)
	}
	return nil
}

func (b *dockerBackend) Stop(ctx context.Context, id string, opts ...backend.Options) error {
	options := backend.Merge(opts...)

	force, err := options.Bool(backend.OptionForce)
	if err != nil {
		return backend.WrapError(backendName, "stop", backend.ErrIllegalSpecification, err)
	}

	cli, err := b.getClient()
	if err != nil {
		return backend.WrapError(backendName, "stop", backend.ErrConnection, err)
	}

	if force {
		if err := cli.ContainerKill(ctx, id, "KILL"); err != nil {
			return backend.WrapError(backendName, "stop", errorKind(err), err)
		}
		return nil
	}

	timeout, err := options.Duration(backend.OptionStopTimeout, 10*time.Second)
	if err != nil {
		return backend.WrapError(backendName, "stop", backend.ErrIllegalSpecification, err)
	}

	seconds := int(timeout / time.Second)
	if err := cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &seconds}); err != nil {
		return backend.WrapError(backendName, "stop", errorKind(err), err)
	}
	return nil
}

// Restart uses the engine's native restart instead of the default stop/start
// composition.
func (b *dockerBackend) Restart(ctx context.Context, id string, opts ...backend.Options) error {
	cli, err := b.getClient()
	if err != nil {
		return backend.WrapError(backendName, "restart", backend.ErrConnection, err)
	}

	if err := cli.ContainerRestart(ctx, id, container.StopOptions{}); err != nil {
		return backend.WrapError(backendName, "restart", errorKind(err), err)
	}
	return nil
}

func (b *dockerBackend) Delete(ctx context.Context, id string, opts ...backend.Options) error {
	force, err := backend.Merge(opts...).Bool(backend.OptionForce)
	if err != nil {
		return backend.WrapError(backendName, "delete", backend.ErrIllegalSpecification, err)
	}

	cli, err := b.getClient()
	if err != nil {
		return backend.WrapError(backendName, "delete", backend.ErrConnection, err)
	}

	if err := cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: force}); err != nil {
		return backend.WrapError(backendName, "delete", errorKind(err), err)
	}
	return nil
}

func (b *dockerBackend) Inspect(ctx context.Context, id string, opts ...backend.Options) (backend.Container, error) {
	info, err := b.inspect(ctx, id, "inspect")
	if err != nil {
		return backend.Container{}, err
	}

	status, err := backend.ParseStatus(info.State.Status)
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "inspect", backend.ErrConnection, err)
	}

	result := backend.Container{
		PK:     info.ID,
		Name:   strings.TrimLeft(info.Name, "/"),
		Image:  info.Config.Image,
		Status: status,
	}

	extra := backend.Details{"temporary": info.HostConfig != nil && info.HostConfig.AutoRemove}
	if info.State.ExitCode != 0 {
		extra[backend.FieldExit] = info.State.ExitCode
	}

	return result.WithDetails(extra), nil
}

func (b *dockerBackend) List(ctx context.Context, opts ...backend.Options) ([]backend.Container, error) {
	cli, err := b.getClient()
	if err != nil {
		return nil, backend.WrapError(backendName, "list", backend.ErrConnection, err)
	}

	listed, err := cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, backend.WrapError(backendName, "list", errorKind(err), err)
	}

	containers := make([]backend.Container, 0, len(listed))
	for _, info := range listed {
		status, err := backend.ParseStatus(info.State)
		if err != nil {
			return nil, backend.WrapError(backendName, "list", backend.ErrConnection, err)
		}

		var name string
		if len(info.Names) != 0 {
			name = strings.TrimLeft(info.Names[0], "/")
		}

		containers = append(containers, backend.Container{
			PK:     info.ID,
			Name:   name,
			Image:  info.Image,
			Status: status,
		}.WithDetails(nil))
	}

	return containers, nil
}

// Commit snapshots the container by committing it to an image.
func (b *dockerBackend) Commit(ctx context.Context, id string, opts ...backend.Options) (backend.Container, error) {
	options := backend.Merge(opts...)

	tag, err := options.String(backend.OptionTag, "latest")
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "commit", backend.ErrIllegalSpecification, err)
	}

	info, err := b.Inspect(ctx, id)
	if err != nil {
		return backend.Container{}, err
	}

	cli, err := b.getClient()
	if err != nil {
		return backend.Container{}, backend.WrapError(backendName, "commit", backend.ErrConnection, err)
	}

	reference := fmt.Sprintf("%s:%s", info.Name, tag)
	if _, err := cli.ContainerCommit(ctx, id, container.CommitOptions{Reference: reference}); err != nil {
		return backend.Container{}, backend.WrapError(backendName, "commit", errorKind(err), err)
	}

	return info.WithDetails(backend.Details{backend.FieldImage: reference}), nil
}

// Clone duplicates the container by committing it and creating a new one from
// the resulting image. The engine has no native clone.
func (b *dockerBackend) Clone(ctx context.Context, id string, opts ...backend.Options) (backend.Container, error) {
	committed, err := b.Commit(ctx, id, opts...)
	if err != nil {
		return backend.Container{}, err
	}

	image, ok := committed.Details.String(backend.FieldImage)
	if !ok {
		return backend.Container{}, backend.NewError(backendName, "clone", backend.ErrImageNotFound)
	}

	return b.Create(ctx, backend.ContainerSpec{
		Name:  fmt.Sprintf("%s-clone", committed.Name),
		Image: image,
	})
}

func (b *dockerBackend) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.client != nil {
		if err := b.client.Close(); err != nil {
			return err
		}
		b.client = nil
	}

	return nil
}

func (b *dockerBackend) inspect(ctx context.Context, id string, operation string) (container.InspectResponse, error) {
	cli, err := b.getClient()
	if err != nil {
		return container.InspectResponse{}, backend.WrapError(backendName, operation, backend.ErrConnection, err)
	}

	info, err := cli.ContainerInspect(ctx, id)
	if err != nil {
		return container.InspectResponse{}, backend.WrapError(backendName, operation, errorKind(err), err)
	}

	return info, nil
}

func (b *dockerBackend) ensureImage(ctx context.Context, cli *client.Client, reference string, pull bool) error {
	_, err := cli.ImageInspect(ctx, reference)
	if err == nil {
		return nil
	} else if !errdefs.IsNotFound(err) {
		return backend.WrapError(backendName, "create", backend.ErrConnection, err)
	}

	if !pull {
		return backend.WrapError(backendName, "create", backend.ErrImageNotFound, err)
	}

	reader, err := cli.ImagePull(ctx, reference, image.PullOptions{})
	if err != nil {
		return backend.WrapError(backendName, "create", backend.ErrImageNotFound, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	// The pull is complete only when the stream is drained.
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

func (b *dockerBackend) getClient() (*client.Client, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.client == nil {
		var err error

		b.client, err = client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return nil, err
		}
	}

	return b.client, nil
}

func errorKind(err error) error {
	switch {
	case errdefs.IsNotFound(err):
		return backend.ErrNotFound
	case errdefs.IsConflict(err):
		return backend.ErrIllegalState
	case errdefs.IsInvalidParameter(err):
		return backend.ErrIllegalSpecification
	case errdefs.IsUnauthorized(err):
		return backend.ErrAuthentication
	default:
		return backend.ErrConnection
	}
}

func createErrorKind(err error) error {
	if errdefs.IsNotFound(err) {
		return backend.ErrImageNotFound
	}
	return errorKind(err)
}

func makeEnv(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for name, value := range env {
		result = append(result, fmt.Sprintf("%s=%s", name, value))
	}
	return result
}
