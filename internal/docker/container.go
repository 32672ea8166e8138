// container.go implements container lifecycle operations for the
// embedding service deployment.
//
// Lifecycle operations follow two patterns, mirroring how operators use
// Docker themselves:
//   - launch uses `docker run -d` via os/exec, because the run flags
//     (restart policy, port mapping, bind mount, env, labels) map
//     one-to-one onto the CLI surface operators already know
//   - discovery, stop, remove, and log streaming use the Docker SDK,
//     which gives typed results and proper context cancellation
//
// The managed container is identified by the "embedctl.managed-by" label
// plus the reserved container name.
package docker

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/mmr-tortoise/embedctl/internal/model"
)

// RunOptions holds everything needed to launch the service container.
// The zero value is not usable; all fields except Env and Labels are
// required.
type RunOptions struct {
	// Name is the reserved container name.
	Name string

	// Image is the image tag to run.
	Image string

	// RestartPolicy is the Docker restart policy (e.g., "unless-stopped").
	RestartPolicy string

	// PortMapping is the port publication in "host:container" format.
	PortMapping string

	// ModelsMount is the model cache bind mount in "host:container" format.
	ModelsMount string

	// Env is the container environment.
	Env map[string]string

	// Labels are the management labels applied to the container.
	Labels map[string]string
}

// buildRunArgs constructs the argument list for `docker run`, excluding
// the leading "run". Env and label flags are emitted in sorted key order
// so the produced command line is deterministic.
func buildRunArgs(opts RunOptions) []string {
	args := []string{
		"-d",
		"--name", opts.Name,
		"--restart", opts.RestartPolicy,
		"-p", opts.PortMapping,
		"-v", opts.ModelsMount,
	}

	for _, k := range sortedKeys(opts.Env) {
		args = append(args, "-e", k+"="+opts.Env[k])
	}
	for _, k := range sortedKeys(opts.Labels) {
		args = append(args, "--label", k+"="+opts.Labels[k])
	}

	args = append(args, opts.Image)
	return args
}

// sortedKeys returns the map keys in ascending order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RunContainer launches the service container detached via `docker run`.
//
// Returns a CLIError with ExitLaunchFailed on a non-zero result, with
// the docker CLI's combined output folded into the message — that output
// names the actual cause (port bind failure, missing image, name clash).
func RunContainer(ctx context.Context, opts RunOptions) error {
	args := append([]string{"run"}, buildRunArgs(opts)...)

	cmd := exec.CommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitLaunchFailed,
			fmt.Sprintf("docker run failed for container %q: %s",
				opts.Name, strings.TrimSpace(string(output))),
			err,
		)
	}
	return nil
}

// FindManagedContainer looks up the container with the reserved name
// among containers carrying the embedctl management label. Stopped
// containers are included, because a stopped deployment still needs to
// be discoverable for status, start, and remove operations.
//
// Returns (nil, nil) when no such container exists — absence is a normal
// state, not an error.
func FindManagedContainer(ctx context.Context, cli *Client, name string) (*model.ContainerInfo, error) {
	// Filter server-side on the management label; the name filter is a
	// substring match in the Docker API, so exact matching happens below.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
		filters.Arg("name", name),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	for _, c := range containers {
		info := containerToInfo(c)
		if info.ContainerName == name {
			return &info, nil
		}
	}
	return nil, nil
}

// containerToInfo converts a Docker API Container struct to the domain
// ContainerInfo. Pure mapping, no side effects.
//
// The Docker API returns container names with a leading "/" prefix
// (e.g., "/nomic-embed-api"), which we strip for cleaner display.
func containerToInfo(c types.Container) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		Image:         c.Image,
		State:         c.State,
		Status:        c.Status,
		Labels:        c.Labels,
	}
}

// Teardown stops and removes any container with the reserved name,
// including containers not created by embedctl (a name squatter would
// otherwise make every launch fail). Absence of such a container is not
// an error, and stop/remove failures are swallowed — teardown is
// best-effort cleanup before a fresh launch.
//
// Returns true if a previous container was found and removed.
func Teardown(ctx context.Context, cli *Client, name string) bool {
	// List by name regardless of labels: the reserved name is the
	// resource being reclaimed, whoever created its current holder.
	filterArgs := filters.NewArgs(filters.Arg("name", name))
	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return false
	}

	removed := false
	for _, c := range containers {
		if containerToInfo(c).ContainerName != name {
			continue
		}
		// Stop first for a graceful shutdown; Force on remove covers the
		// case where the stop failed or raced with a restart policy.
		_ = cli.Inner().ContainerStop(ctx, c.ID, container.StopOptions{})
		_ = cli.Inner().ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true})
		removed = true
	}
	return removed
}

// StopContainer stops a running container by ID. Docker sends SIGTERM
// and escalates to SIGKILL after its default timeout (10 seconds).
func StopContainer(ctx context.Context, cli *Client, containerID string) error {
	err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to stop container %q", containerID),
			err,
		)
	}
	return nil
}

// StartContainer starts a stopped container by ID.
func StartContainer(ctx context.Context, cli *Client, containerID string) error {
	err := cli.Inner().ContainerStart(ctx, containerID, container.StartOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to start container %q", containerID),
			err,
		)
	}
	return nil
}

// RemoveContainer removes a container by ID. With force, Docker kills a
// running container before removing it.
func RemoveContainer(ctx context.Context, cli *Client, containerID string, force bool) error {
	err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force: force,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to remove container %q", containerID),
			err,
		)
	}
	return nil
}

// StreamLogs copies the container's log output to the given writers.
// With tail > 0, only the last tail lines are fetched; with follow, the
// call blocks and streams until the context is cancelled or the
// container stops.
//
// Containers started without a TTY (as embedctl starts them) produce a
// multiplexed stream, which stdcopy demultiplexes back into the original
// stdout and stderr.
func StreamLogs(ctx context.Context, cli *Client, containerID string, tail int, follow bool, stdout, stderr io.Writer) error {
	opts := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
	}
	if tail > 0 {
		opts.Tail = strconv.Itoa(tail)
	}

	reader, err := cli.Inner().ContainerLogs(ctx, containerID, opts)
	if err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to read logs for container %q", containerID),
			err,
		)
	}
	defer func() { _ = reader.Close() }()

	if _, err := stdcopy.StdCopy(stdout, stderr, reader); err != nil {
		// Context cancellation is the normal way a follow ends.
		if ctx.Err() != nil {
			return nil
		}
		return model.WrapCLIError(model.ExitGeneralError, "log stream interrupted", err)
	}
	return nil
}
