package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"

	"github.com/ipynbsrv/coco/internal/api"
	"github.com/ipynbsrv/coco/internal/backend"
	"github.com/ipynbsrv/coco/internal/backend/docker"
	"github.com/ipynbsrv/coco/internal/backend/podman"
	"github.com/ipynbsrv/coco/internal/config"
	"github.com/ipynbsrv/coco/internal/logging"
	"github.com/ipynbsrv/coco/internal/manager"
	"github.com/ipynbsrv/coco/internal/registry"
	"github.com/ipynbsrv/coco/internal/server"
	"github.com/ipynbsrv/coco/internal/storage"
	"github.com/ipynbsrv/coco/internal/store"
	"github.com/ipynbsrv/coco/internal/util"
)

func run() error {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s [flags]", os.Args[0]),
		Short: "Container collaboration daemon",
		Args:  cobra.NoArgs,

		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,

		Run: func(cmd *cobra.Command, args []string) {
			if err := execute(cmd); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Error: %s.\n", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().String("config", "/etc/coco/coco.yaml", "configuration file path")
	cmd.Flags().Bool("devel", false, "run a mock-backed dry run and exit")

	return cmd.Execute()
}

func execute(cmd *cobra.Command) error {
	flags := cmd.Flags()

	develMode, err := flags.GetBool("devel")
	if err != nil {
		return err
	}

	configPath, err := flags.GetString("config")
	if err != nil {
		return err
	}

	logger, err := logging.Configure(develMode)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // Always fails to sync stderr
	}()
	ctx := logging.WithLogger(context.Background(), logger)

	if develMode {
		return devel(ctx)
	}

	daemonConfig, err := config.Load(configPath)
	if err != nil {
		return err
	}

	return serve(ctx, daemonConfig)
}

func serve(ctx context.Context, daemonConfig config.Config) error {
	backends := registry.New()
	defer func() {
		if err := backends.Close(); err != nil {
			logging.L(ctx).Errorf("Failed to close backends: %s.", err)
		}
	}()

	if daemonConfig.Backends.Docker.Enabled {
		if err := backends.Register(docker.New(daemonConfig.Backends.Docker.Options)); err != nil {
			return err
		}
	}
	if daemonConfig.Backends.Podman.Enabled {
		podmanConfig := daemonConfig.Backends.Podman
		if err := backends.Register(podman.New(podmanConfig.URI, podmanConfig.Options)); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(daemonConfig.StorePath), 0o755); err != nil {
		return err
	}

	var dataStorage storage.Backend
	if daemonConfig.StorageRoot != "" {
		if err := os.MkdirAll(daemonConfig.StorageRoot, 0o755); err != nil {
			return err
		}
		dataStorage = storage.NewLocal(daemonConfig.StorageRoot)
	}

	containerStore, err := store.Open(daemonConfig.StorePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := containerStore.Close(); err != nil {
			logging.L(ctx).Errorf("Failed to close the container store: %s.", err)
		}
	}()

	containerManager := manager.New(backends, containerStore, dataStorage)
	router := api.NewRouter(logging.L(ctx), containerManager)

	logging.L(ctx).Infof("Listening on %s (backends: %v).", daemonConfig.Listen, backends.Names())
	return server.Start(ctx, daemonConfig.Listen, router)
}

// devel exercises the whole stack against the mock backend and dumps the
// results, so changes can be eyeballed without a running engine.
func devel(ctx context.Context) error {
	logging.L(ctx).Info("Running in test mode.")

	backends := registry.New()
	if err := backends.Register(backend.NewMock()); err != nil {
		return err
	}

	storePath := filepath.Join(os.TempDir(), "coco-devel.db")
	defer func() {
		_ = os.Remove(storePath)
	}()

	containerStore, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = containerStore.Close()
	}()

	storageRoot, err := os.MkdirTemp("", "coco-devel-data")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.RemoveAll(storageRoot)
	}()

	containerManager := manager.New(backends, containerStore, storage.NewLocal(storageRoot))

	spec := backend.ContainerSpec{
		Name:  "devel-notebook",
		Image: "busybox",
		Ports: []backend.PortMapping{{Host: 8888, Container: 80}, {Host: 8080, Container: 8080}},
	}

	record, err := containerManager.Create(ctx, "mock", spec)
	if err != nil {
		return err
	}
	if err := containerManager.Start(ctx, record.PK); err != nil {
		return err
	}

	record, err = containerManager.Get(ctx, record.PK)
	if err != nil {
		return err
	}

	hostPorts := make([]uint16, 0, len(spec.Ports))
	for _, mapping := range spec.Ports {
		hostPorts = append(hostPorts, mapping.Host)
	}

	logging.L(ctx).Infof("Container record:\n%s", litter.Sdump(record))
	logging.L(ctx).Infof("Status: %s. Host ports: %s.",
		util.Title(string(record.Status)), util.FormatList(hostPorts, true))

	return containerManager.Delete(ctx, record.PK, backend.Options{backend.OptionForce: true})
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Command line arguments parsing error: %s.\n", err)
		os.Exit(1)
	}
}
