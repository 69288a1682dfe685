package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "coco.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, heredoc.Doc(`
		listen: 0.0.0.0:8090
		store_path: /tmp/coco-test.db
		storage_root: /tmp/coco-data

		backends:
		    docker:
		        enabled: true
		        options:
		            pull: true
		    podman:
		        enabled: true
		        uri: unix:///run/user/1000/podman/podman.sock
	`))

	config, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8090", config.Listen)
	require.Equal(t, "/tmp/coco-test.db", config.StorePath)

	require.True(t, config.Backends.Docker.Enabled)
	pull, err := config.Backends.Docker.Options.Bool("pull")
	require.NoError(t, err)
	require.True(t, pull)

	require.True(t, config.Backends.Podman.Enabled)
	require.Equal(t, "unix:///run/user/1000/podman/podman.sock", config.Backends.Podman.URI)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, heredoc.Doc(`
		listen: 127.0.0.1:9000
	`))

	config, err := Load(path)
	require.NoError(t, err)

	defaults := Default()
	require.Equal(t, "127.0.0.1:9000", config.Listen)
	require.Equal(t, defaults.StorePath, config.StorePath)
	require.True(t, config.Backends.Docker.Enabled)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no-such-file.yaml"))
	require.Error(t, err)

	for name, contents := range map[string]string{
		"unknown field": heredoc.Doc(`
			listen: 127.0.0.1:9000
			unknown_setting: true
		`),
		"no backends": heredoc.Doc(`
			backends:
			    docker:
			        enabled: false
		`),
		"empty listen": heredoc.Doc(`
			listen: ""
		`),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, contents))
			require.Error(t, err)
		})
	}
}
