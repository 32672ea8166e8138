// smoke.go implements the "embedctl smoke" command.
//
// Unlike the smoke tests folded into deploy (which only warn), the
// standalone smoke command is an explicit verification request, so any
// failure is a hard error.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/embedctl/internal/config"
	"github.com/mmr-tortoise/embedctl/internal/model"
	"github.com/mmr-tortoise/embedctl/internal/probe"
)

// smokeTimeout bounds each smoke request. Inference on CPU is slow but
// a single short sentence should never take this long.
const smokeTimeout = 30 * time.Second

// smokeFlags holds the flag values for the smoke command.
type smokeFlags struct {
	name  string
	text  string
	batch bool
}

// NewSmokeCommand creates the "smoke" cobra command.
func NewSmokeCommand() *cobra.Command {
	flags := &smokeFlags{}

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run smoke tests against the deployed service",
		Long: `Exercise the deployed service's HTTP API: the health endpoint, a single
embed request, and optionally a batch embed request.

Any failed check makes the command fail, so it is suitable as a gate in
scripts.

Examples:
  embedctl smoke
  embedctl smoke --text "custom probe sentence" --batch`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmoke(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", config.DefaultContainerName, "Container name of the deployment")
	cmd.Flags().StringVar(&flags.text, "text", config.DefaultSmokeText, "Text to embed in the single-request check")
	cmd.Flags().BoolVar(&flags.batch, "batch", false, "Also exercise the batch embed endpoint")

	return cmd
}

// smokeResult aggregates the outcome of all checks for output.
type smokeResult struct {
	Health *model.HealthReport     `json:"health"`
	Embed  *model.EmbedReport      `json:"embed"`
	Batch  *model.BatchEmbedReport `json:"batch,omitempty"`
}

// runSmoke executes the smoke command.
func runSmoke(ctx context.Context, flags *smokeFlags) error {
	cli, err := connectDocker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	deployment, err := findDeployment(ctx, cli, flags.name)
	if err != nil {
		return err
	}
	if deployment.State != model.StateRunning {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("deployment %q is not running (state: %s)", flags.name, deployment.State))
	}

	client := probe.NewClient(fmt.Sprintf("http://localhost:%d", deployment.HostPort), smokeTimeout)
	result := smokeResult{}

	log.Debug().Msg("checking health endpoint")
	result.Health, err = client.Health(ctx)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "health check failed", err)
	}
	if result.Health.Status != "healthy" {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("service reported status %q", result.Health.Status))
	}

	log.Debug().Str("text", flags.text).Msg("sending embed request")
	result.Embed, err = client.Embed(ctx, flags.text)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "embed request failed", err)
	}

	if flags.batch {
		log.Debug().Msg("sending batch embed request")
		result.Batch, err = client.EmbedBatch(ctx, []string{flags.text, flags.text})
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "batch embed request failed", err)
		}
	}

	printSmokeResult(result)
	return nil
}

// printSmokeResult outputs the smoke test outcomes in text or JSON
// format.
func printSmokeResult(result smokeResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println("All smoke tests passed")
	fmt.Printf("  Health: %s (model %s)\n", result.Health.Status, result.Health.Model)
	fmt.Printf("  Embed:  %d dimensions in %.3fs\n", result.Embed.Dimensions, result.Embed.ProcessingTime)
	if result.Batch != nil {
		fmt.Printf("  Batch:  %d embeddings, %d dimensions in %.3fs\n",
			result.Batch.Count, result.Batch.Dimensions, result.Batch.ProcessingTime)
	}
}
