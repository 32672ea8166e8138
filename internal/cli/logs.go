// logs.go implements the "embedctl logs" command.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/embedctl/internal/config"
	"github.com/mmr-tortoise/embedctl/internal/docker"
)

// NewLogsCommand creates the "logs" cobra command.
func NewLogsCommand() *cobra.Command {
	var (
		name   string
		tail   int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the deployment's container logs",
		Long: `Show the container logs of the deployed instance.

By default the last 50 lines are printed. With --follow the stream stays
attached until interrupted, which is the usual way to watch the model
download on a first deploy.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd.Context(), name, tail, follow)
		},
	}

	cmd.Flags().StringVar(&name, "name", config.DefaultContainerName, "Container name of the deployment")
	cmd.Flags().IntVar(&tail, "tail", 50, "Number of lines to show from the end of the logs (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new log output until interrupted")

	return cmd
}

// runLogs executes the logs command. Container stdout and stderr keep
// their original streams on the way through.
func runLogs(ctx context.Context, name string, tail int, follow bool) error {
	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	deployment, err := findDeployment(ctx, cli, name)
	if err != nil {
		return err
	}

	return docker.StreamLogs(ctx, cli, deployment.Container.ContainerID, tail, follow, os.Stdout, os.Stderr)
}
