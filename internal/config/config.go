// Package config loads the daemon configuration.
package config

import (
	"io"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/ipynbsrv/coco/internal/backend"
	"github.com/ipynbsrv/coco/internal/util"
)

type Config struct {
	Listen    string `yaml:"listen"`
	StorePath string `yaml:"store_path"`

	// StorageRoot is where the storage backend keeps container data
	// directories. Empty disables them.
	StorageRoot string `yaml:"storage_root"`

	Backends BackendsConfig `yaml:"backends"`
}

type BackendsConfig struct {
	Docker DockerConfig `yaml:"docker"`
	Podman PodmanConfig `yaml:"podman"`
}

type DockerConfig struct {
	Enabled bool `yaml:"enabled"`

	// Options is merged into every operation's options bag as defaults.
	Options backend.Options `yaml:"options"`
}

type PodmanConfig struct {
	Enabled bool   `yaml:"enabled"`
	URI     string `yaml:"uri"`

	Options backend.Options `yaml:"options"`
}

func Default() Config {
	return Config{
		Listen:      "127.0.0.1:8090",
		StorePath:   "/var/lib/coco/coco.db",
		StorageRoot: "/var/lib/coco/data",
		Backends: BackendsConfig{
			Docker: DockerConfig{Enabled: true},
		},
	}
}

func Load(path string) (Config, error) {
	config := Default()

	if err := util.ReadFile(path, func(file io.Reader) error {
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		return decoder.Decode(&config)
	}); err != nil {
		return Config{}, err
	}

	if err := config.validate(); err != nil {
		return Config{}, xerrors.Errorf("%q config file validation error: %w", path, err)
	}

	return config, nil
}

func (c Config) validate() error {
	if c.Listen == "" {
		return xerrors.New("Listen address is not specified")
	}
	if c.StorePath == "" {
		return xerrors.New("Container store path is not specified")
	}
	if !c.Backends.Docker.Enabled && !c.Backends.Podman.Enabled {
		return xerrors.New("No container backends are enabled")
	}
	return nil
}
