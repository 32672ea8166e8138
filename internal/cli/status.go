// status.go implements the "embedctl status" command.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/embedctl/internal/config"
	"github.com/mmr-tortoise/embedctl/internal/model"
	"github.com/mmr-tortoise/embedctl/internal/probe"
)

// healthProbeTimeout bounds the live health check performed by status.
// Status should answer quickly even when the service is wedged.
const healthProbeTimeout = 5 * time.Second

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the deployment's container state and live health",
		Long: `Show the deployed instance: container state from Docker, the deployment
metadata recorded at launch, and a live probe of the health endpoint
when the container is running.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), name)
		},
	}

	cmd.Flags().StringVar(&name, "name", config.DefaultContainerName, "Container name of the deployment")

	return cmd
}

// statusResult is the full status view: the deployment plus the live
// health report (nil when the container is not running or the probe
// failed).
type statusResult struct {
	Deployment *model.Deployment   `json:"deployment"`
	Health     *model.HealthReport `json:"health,omitempty"`
	HealthErr  string              `json:"healthError,omitempty"`
}

// runStatus executes the status command.
func runStatus(ctx context.Context, name string) error {
	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	deployment, err := findDeployment(ctx, cli, name)
	if err != nil {
		return err
	}

	result := statusResult{Deployment: deployment}

	// Probe the service only when the container runs; a stopped container
	// cannot answer, and waiting for the connection refusal is noise.
	if deployment.State == model.StateRunning {
		probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		defer cancel()

		client := probe.NewClient(fmt.Sprintf("http://localhost:%d", deployment.HostPort), healthProbeTimeout)
		health, err := client.Health(probeCtx)
		if err != nil {
			result.HealthErr = err.Error()
		}
		result.Health = health
	}

	if IsJSONOutput() {
		return printStatusJSON(result)
	}
	printStatusText(result)
	return nil
}

// printStatusJSON outputs the status as structured JSON.
func printStatusJSON(result statusResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to marshal status", err)
	}
	fmt.Println(string(data))
	return nil
}

// printStatusText outputs the status as human-readable text.
func printStatusText(result statusResult) {
	d := result.Deployment

	fmt.Printf("Deployment: %s\n", d.Service)
	fmt.Printf("  State:    %s\n", d.State)
	fmt.Printf("  Image:    %s\n", d.Image)
	fmt.Printf("  Model:    %s\n", d.Model)
	fmt.Printf("  Port:     %d -> %d\n", d.HostPort, d.ContainerPort)
	fmt.Printf("  Deployed: %s\n", d.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	if c := d.Container; c != nil {
		fmt.Printf("  Container: %s (%s)\n", shortID(c.ContainerID), c.Status)
	}

	switch {
	case result.Health != nil && result.HealthErr == "":
		fmt.Printf("  Health:   %s (model %s)\n", result.Health.Status, result.Health.Model)
	case result.HealthErr != "":
		fmt.Printf("  Health:   unreachable (%s)\n", result.HealthErr)
	default:
		fmt.Println("  Health:   not probed (container is stopped)")
	}
}
