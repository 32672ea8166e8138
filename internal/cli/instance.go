// instance.go holds lookup helpers shared by the commands that operate
// on an existing deployment (status, logs, stop, remove, smoke).
package cli

import (
	"context"
	"fmt"

	"github.com/mmr-tortoise/embedctl/internal/docker"
	"github.com/mmr-tortoise/embedctl/internal/model"
)

// connectDocker creates a Docker client and verifies the daemon is
// reachable. The caller owns the returned client and must Close it.
func connectDocker(ctx context.Context) (*docker.Client, error) {
	cli, err := docker.NewClient()
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return cli, nil
}

// findDeployment locates the managed container with the given name and
// reconstructs its Deployment from labels, filling in the live container
// state.
//
// Returns a CLIError with ExitInstanceNotFound when no managed container
// exists — for the operational commands, absence is a hard error, unlike
// during deploy teardown.
func findDeployment(ctx context.Context, cli *docker.Client, name string) (*model.Deployment, error) {
	info, err := docker.FindManagedContainer(ctx, cli, name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, model.NewCLIError(model.ExitInstanceNotFound,
			fmt.Sprintf("no deployment named %q found (run 'embedctl deploy' first)", name))
	}

	deployment, err := docker.ParseLabels(info.Labels)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("container %q carries corrupt deployment labels", name), err)
	}

	deployment.Container = info
	if info.State == "running" {
		deployment.State = model.StateRunning
	} else {
		deployment.State = model.StateStopped
	}
	return deployment, nil
}
