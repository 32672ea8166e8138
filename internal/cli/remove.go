// remove.go implements the "embedctl remove" command.
//
// Remove destroys the deployed container entirely. The model cache
// directory on the host is deliberately left alone: re-downloading the
// embedding model is the expensive part of a deploy, and the next
// 'embedctl deploy' reuses the cache.
//
// By default, the command prompts for confirmation before proceeding.
// The --force flag skips the confirmation prompt.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/embedctl/internal/config"
	"github.com/mmr-tortoise/embedctl/internal/docker"
	"github.com/mmr-tortoise/embedctl/internal/model"
)

// removeFlags holds the flag values for the remove command.
type removeFlags struct {
	// name is the container name of the deployment to remove.
	name string

	// force skips the interactive confirmation prompt when true.
	force bool
}

// NewRemoveCommand creates the "remove" cobra command.
func NewRemoveCommand() *cobra.Command {
	flags := &removeFlags{}

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the deployment's container",
		Long: `Stop and remove the deployed instance's container.

The model cache directory on the host is preserved, so a subsequent
deploy skips the model download.

Unless --force is specified, the command prompts for confirmation.

Examples:
  embedctl remove
  embedctl remove --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", config.DefaultContainerName, "Container name of the deployment")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove without confirmation")

	return cmd
}

// runRemove is the main logic function for the remove command.
func runRemove(ctx context.Context, flags *removeFlags) error {
	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	deployment, err := findDeployment(ctx, cli, flags.name)
	if err != nil {
		return err
	}

	if !flags.force {
		confirmed, err := promptConfirmation(deployment)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	// Force handles the running-container case: Docker kills it before
	// removal, matching the stop-then-remove teardown during deploy.
	if err := docker.RemoveContainer(ctx, cli, deployment.Container.ContainerID, true); err != nil {
		return err
	}

	printRemoveResult(deployment)
	return nil
}

// promptConfirmation asks the user to confirm the remove operation.
// It reads a single line from stdin and checks for "y" or "yes".
func promptConfirmation(d *model.Deployment) (bool, error) {
	fmt.Printf("About to remove deployment %q:\n", d.Service)
	fmt.Printf("  - container %s (%s) will be removed\n", shortID(d.Container.ContainerID), d.State)
	fmt.Println("  - the model cache on the host is preserved")
	fmt.Print("\nContinue? [y/N] ")

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}

	// If stdin is closed or an error occurred, treat it as "no".
	if err := scanner.Err(); err != nil {
		return false, err
	}

	return false, nil
}

// printRemoveResult outputs the remove command result in text or JSON
// format.
func printRemoveResult(d *model.Deployment) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"name":   d.Service,
			"action": "removed",
			"image":  d.Image,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Removed deployment %q\n", d.Service)
	fmt.Println("  Model cache preserved; 'embedctl deploy' will reuse it")
}
