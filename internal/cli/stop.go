// stop.go implements the "embedctl stop" command.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/embedctl/internal/config"
	"github.com/mmr-tortoise/embedctl/internal/docker"
	"github.com/mmr-tortoise/embedctl/internal/model"
)

// NewStopCommand creates the "stop" cobra command.
func NewStopCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the deployment's container",
		Long: `Stop the deployed instance's container without removing it.

The container and its labels survive, so 'embedctl status' still finds
the deployment and a later 'embedctl deploy' reclaims the name. The
model cache on the host is untouched.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd.Context(), name)
		},
	}

	cmd.Flags().StringVar(&name, "name", config.DefaultContainerName, "Container name of the deployment")

	return cmd
}

// runStop executes the stop command.
func runStop(ctx context.Context, name string) error {
	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	deployment, err := findDeployment(ctx, cli, name)
	if err != nil {
		return err
	}

	if deployment.State != model.StateRunning {
		log.Info().Str("container", name).Msg("deployment is already stopped")
		return nil
	}

	if err := docker.StopContainer(ctx, cli, deployment.Container.ContainerID); err != nil {
		return err
	}

	fmt.Printf("Stopped deployment %q\n", name)
	return nil
}
