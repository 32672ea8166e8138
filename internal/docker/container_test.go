package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docker/docker/api/types"
)

// TestBuildRunArgs verifies the docker run argument construction:
// ordering of the fixed flags, deterministic env/label emission, and the
// image as the final argument.
func TestBuildRunArgs(t *testing.T) {
	opts := RunOptions{
		Name:          "nomic-embed-api",
		Image:         "nomic-embed-api:latest",
		RestartPolicy: "unless-stopped",
		PortMapping:   "5000:5000",
		ModelsMount:   "/srv/deploy/models:/app/models",
		Env: map[string]string{
			"PYTHONUNBUFFERED": "1",
			"FLASK_ENV":        "production",
		},
		Labels: map[string]string{
			"embedctl.managed-by": "embedctl",
			"embedctl.service":    "nomic-embed-api",
		},
	}

	args := buildRunArgs(opts)

	expected := []string{
		"-d",
		"--name", "nomic-embed-api",
		"--restart", "unless-stopped",
		"-p", "5000:5000",
		"-v", "/srv/deploy/models:/app/models",
		// Env flags in sorted key order.
		"-e", "FLASK_ENV=production",
		"-e", "PYTHONUNBUFFERED=1",
		// Label flags in sorted key order.
		"--label", "embedctl.managed-by=embedctl",
		"--label", "embedctl.service=nomic-embed-api",
		"nomic-embed-api:latest",
	}
	assert.Equal(t, expected, args)
}

// TestBuildRunArgs_NoEnvNoLabels verifies the minimal argument list when
// no env or labels are supplied.
func TestBuildRunArgs_NoEnvNoLabels(t *testing.T) {
	opts := RunOptions{
		Name:          "embed",
		Image:         "embed:dev",
		RestartPolicy: "no",
		PortMapping:   "8080:5000",
		ModelsMount:   "/tmp/models:/app/models",
	}

	args := buildRunArgs(opts)

	require.Equal(t, "embed:dev", args[len(args)-1], "image must be the last argument")
	assert.NotContains(t, args, "-e")
	assert.NotContains(t, args, "--label")
}

// TestContainerToInfo verifies the mapping from the Docker API container
// struct to the domain ContainerInfo, including name prefix stripping.
func TestContainerToInfo(t *testing.T) {
	c := types.Container{
		ID:     "abc123def456",
		Names:  []string{"/nomic-embed-api"},
		Image:  "nomic-embed-api:latest",
		State:  "running",
		Status: "Up 2 minutes",
		Labels: map[string]string{
			LabelManagedBy: ManagedByValue,
		},
	}

	info := containerToInfo(c)

	assert.Equal(t, "abc123def456", info.ContainerID)
	assert.Equal(t, "nomic-embed-api", info.ContainerName,
		"leading slash from the Docker API should be stripped")
	assert.Equal(t, "nomic-embed-api:latest", info.Image)
	assert.Equal(t, "running", info.State)
	assert.Equal(t, "Up 2 minutes", info.Status)
	assert.Equal(t, ManagedByValue, info.Labels[LabelManagedBy])
}

// TestContainerToInfo_NoNames verifies the mapping tolerates a container
// with an empty names slice.
func TestContainerToInfo_NoNames(t *testing.T) {
	info := containerToInfo(types.Container{ID: "abc"})
	assert.Empty(t, info.ContainerName)
}

// TestSortedKeys verifies deterministic key ordering for flag emission.
func TestSortedKeys(t *testing.T) {
	keys := sortedKeys(map[string]string{"c": "3", "a": "1", "b": "2"})
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	assert.Empty(t, sortedKeys(nil))
}
