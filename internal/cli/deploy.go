// Package cli — deploy.go implements the "embedctl deploy" command.
//
// Deploy is the primary operation: it takes a directory containing the
// embedding service sources and turns it into a running, health-checked
// container.
//
// Orchestration steps:
//  1. Resolve configuration (defaults → embedctl.json manifest → flags)
//  2. Ensure the working and models directories exist
//  3. Verify required files (fatal, all missing names reported together)
//  4. Inspect docker-compose.yml for drift against the launch settings
//  5. Tear down any previous instance (best-effort)
//  6. Build the image (fatal on failure)
//  7. Check host port availability (fatal on conflict)
//  8. Launch the container detached (fatal on failure)
//  9. Poll the health endpoint with backoff until ready (fatal on timeout)
// 10. Print instance status and a log tail (informational)
// 11. Run smoke tests (failures are warnings, never change the exit code)
// 12. Print the endpoint summary
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/embedctl/internal/config"
	"github.com/mmr-tortoise/embedctl/internal/docker"
	"github.com/mmr-tortoise/embedctl/internal/hostnet"
	"github.com/mmr-tortoise/embedctl/internal/model"
	"github.com/mmr-tortoise/embedctl/internal/precheck"
	"github.com/mmr-tortoise/embedctl/internal/probe"
)

// statusLogTail is the number of log lines shown in the post-launch
// status inspection.
const statusLogTail = 20

// deployFlags holds the flag values for the deploy command.
type deployFlags struct {
	dir       string        // --dir: deployment working directory
	image     string        // --image: image tag override
	name      string        // --name: container name override
	port      int           // --port: host port override
	timeout   time.Duration // --timeout: readiness deadline override
	skipSmoke bool          // --skip-smoke: skip the smoke tests
}

// NewDeployCommand creates the "deploy" cobra command.
func NewDeployCommand() *cobra.Command {
	flags := &deployFlags{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Build and launch the embedding service",
		Long: `Build the service image from the working directory and launch it as a
detached container with a persistent model cache.

Any previous instance with the reserved container name is stopped and
removed first, so deploy doubles as redeploy. After launch, the health
endpoint is polled until the service reports healthy (the first deploy
downloads the embedding model, which can take a few minutes), then the
embed endpoint is smoke-tested.

Examples:
  embedctl deploy
  embedctl deploy --dir ~/services/embed --port 8080
  embedctl deploy --timeout 10m --skip-smoke`,

		Args: cobra.NoArgs,

		// RunE is used instead of Run so errors flow to the Execute
		// error handler in root.go, which maps them to exit codes.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.dir, "dir", "", "Deployment working directory (default: current directory)")
	cmd.Flags().StringVar(&flags.image, "image", "", "Image tag (default: "+config.DefaultImageTag+")")
	cmd.Flags().StringVar(&flags.name, "name", "", "Container name (default: "+config.DefaultContainerName+")")
	cmd.Flags().IntVar(&flags.port, "port", 0, fmt.Sprintf("Host port to publish (default: %d)", config.DefaultPort))
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Readiness deadline (default: "+config.DefaultReadinessTimeout.String()+")")
	cmd.Flags().BoolVar(&flags.skipSmoke, "skip-smoke", false, "Skip the post-deploy smoke tests")

	return cmd
}

// resolveConfig builds the effective configuration for this run:
// built-in defaults, then the optional manifest in the working
// directory, then explicit flags on top.
func resolveConfig(cmd *cobra.Command, flags *deployFlags) (*config.Config, error) {
	cfg := config.Default()
	cfg.WorkDir = flags.dir
	if err := cfg.Finalize(); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to resolve working directory", err)
	}

	if manifestPath := config.FindManifest(cfg.WorkDir); manifestPath != "" {
		log.Debug().Str("manifest", manifestPath).Msg("applying manifest")
		if err := config.LoadManifest(manifestPath, cfg); err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, "failed to load manifest", err)
		}
		// The manifest may have set a relative models dir.
		if err := cfg.Finalize(); err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, "failed to resolve models directory", err)
		}
	}

	// Flags override the manifest. Changed() distinguishes an explicit
	// flag from its zero default.
	if flags.image != "" {
		cfg.ImageTag = flags.image
	}
	if flags.name != "" {
		cfg.ContainerName = flags.name
	}
	if cmd.Flags().Changed("port") {
		cfg.HostPort = flags.port
	}
	if cmd.Flags().Changed("timeout") {
		cfg.ReadinessTimeout = flags.timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid configuration", err)
	}
	return cfg, nil
}

// runDeploy is the main orchestration function for the deploy command.
func runDeploy(ctx context.Context, cmd *cobra.Command, flags *deployFlags) error {
	// Step 1: Resolve configuration.
	cfg, err := resolveConfig(cmd, flags)
	if err != nil {
		return err
	}
	log.Info().
		Str("dir", cfg.WorkDir).
		Str("image", cfg.ImageTag).
		Str("container", cfg.ContainerName).
		Int("port", cfg.HostPort).
		Msg("deploying embedding service")

	// Step 2: Ensure the working and models directories exist.
	if err := precheck.EnsureDirs(cfg.WorkDir, cfg.ModelsDir); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to prepare directories", err)
	}

	// Step 3: Verify required files. Every missing name is reported in
	// one message so the operator fixes them in a single pass.
	if missing := precheck.MissingFiles(cfg.WorkDir, config.RequiredFiles); len(missing) > 0 {
		return model.NewCLIError(model.ExitMissingPrereqs,
			fmt.Sprintf("missing required files in %s: %s", cfg.WorkDir, strings.Join(missing, ", ")))
	}
	log.Debug().Strs("files", config.RequiredFiles).Msg("required files present")

	// Step 4: Inspect docker-compose.yml for drift. The file is required
	// but the launch goes through docker run, so divergence is worth a
	// warning — never a failure.
	composePath := filepath.Join(cfg.WorkDir, "docker-compose.yml")
	warnings, err := precheck.InspectCompose(
		composePath, cfg.PortMapping(), config.DefaultModelsMount, cfg.ContainerName)
	if err != nil {
		log.Warn().Err(err).Msg("could not inspect docker-compose.yml")
	}
	for _, w := range warnings {
		log.Warn().Msg(w)
	}

	// Connect to Docker before any container operation.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	log.Debug().Msg("connected to Docker daemon")

	// Step 5: Tear down any previous instance. Best-effort — absence or
	// failure must not block the fresh launch.
	if docker.Teardown(ctx, cli, cfg.ContainerName) {
		log.Info().Str("container", cfg.ContainerName).Msg("removed previous instance")
	}

	// Step 6: Build the image. Progress streams straight through so long
	// dependency installs remain visible.
	log.Info().Str("image", cfg.ImageTag).Msg("building image")
	if err := docker.BuildImage(ctx, cfg.WorkDir, cfg.ImageTag, os.Stdout, os.Stderr); err != nil {
		return err
	}

	// Step 7: Check the host port now that the previous instance (which
	// may have held it) is gone. A typed conflict error beats the
	// generic bind failure docker run would report.
	if !hostnet.NewScanner().IsPortAvailable(cfg.HostPort) {
		return model.NewCLIError(model.ExitPortConflict,
			fmt.Sprintf("host port %d is already in use by another process", cfg.HostPort))
	}

	// Step 8: Launch.
	deployment := &model.Deployment{
		Service:       cfg.ContainerName,
		Image:         cfg.ImageTag,
		Model:         cfg.ModelName,
		HostPort:      cfg.HostPort,
		ContainerPort: cfg.ContainerPort,
		CreatedAt:     time.Now().UTC(),
	}
	log.Info().Str("container", cfg.ContainerName).Msg("launching container")
	if err := docker.RunContainer(ctx, docker.RunOptions{
		Name:          cfg.ContainerName,
		Image:         cfg.ImageTag,
		RestartPolicy: cfg.RestartPolicy,
		PortMapping:   cfg.PortMapping(),
		ModelsMount:   cfg.ModelsMount(),
		Env:           cfg.Env,
		Labels:        docker.BuildLabels(deployment),
	}); err != nil {
		return err
	}

	// Step 9: Wait for the service to report healthy. The deadline is
	// generous because the first launch downloads the model.
	serviceURL := fmt.Sprintf("http://localhost:%d", cfg.HostPort)
	client := probe.NewClient(serviceURL, 0)
	log.Info().Dur("timeout", cfg.ReadinessTimeout).Msg("waiting for service to become healthy")
	if err := client.WaitReady(ctx, cfg.ReadinessTimeout); err != nil {
		return err
	}
	log.Info().Msg("service is healthy")

	// Step 10: Status inspection — purely informational. Failures here
	// are logged and ignored; the deployment itself already succeeded.
	inspectInstance(ctx, cli, cfg.ContainerName)

	// Step 11: Smoke tests. Failures are warnings only: the service
	// passed its health check, and diagnostics must not fail the deploy.
	if !flags.skipSmoke {
		runDeploySmoke(ctx, client, cfg.SmokeText)
	}

	// Step 12: Endpoint summary.
	printDeploySummary(cfg, deployment)
	return nil
}

// inspectInstance prints the container state and a short log tail after
// a successful launch. Informational only — errors are downgraded to
// warnings and the exit code is unaffected.
func inspectInstance(ctx context.Context, cli *docker.Client, name string) {
	info, err := docker.FindManagedContainer(ctx, cli, name)
	if err != nil || info == nil {
		log.Warn().Err(err).Msg("could not inspect the launched container")
		return
	}
	log.Info().
		Str("container", info.ContainerName).
		Str("id", shortID(info.ContainerID)).
		Str("status", info.Status).
		Msg("instance status")

	fmt.Printf("--- last %d log lines ---\n", statusLogTail)
	if err := docker.StreamLogs(ctx, cli, info.ContainerID, statusLogTail, false, os.Stdout, os.Stderr); err != nil {
		log.Warn().Err(err).Msg("could not read container logs")
	}
	fmt.Println("--- end of log tail ---")
}

// runDeploySmoke exercises the health and embed routes and logs the
// outcomes. All failures are warnings by design.
func runDeploySmoke(ctx context.Context, client *probe.Client, text string) {
	if health, err := client.Health(ctx); err != nil {
		log.Warn().Err(err).Msg("smoke test: health check failed")
	} else {
		log.Info().Str("status", health.Status).Str("model", health.Model).Msg("smoke test: health check passed")
	}

	if report, err := client.Embed(ctx, text); err != nil {
		log.Warn().Err(err).Msg("smoke test: embed request failed")
	} else {
		log.Info().
			Int("dimensions", report.Dimensions).
			Str("model", report.Model).
			Float64("processing_time_s", report.ProcessingTime).
			Msg("smoke test: embed request passed")
	}
}

// shortID truncates a container ID to the familiar 12-character form.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// printDeploySummary outputs the endpoint URLs and operational hints in
// text or JSON format.
func printDeploySummary(cfg *config.Config, d *model.Deployment) {
	hostIP := hostnet.PrimaryIP()
	if IsJSONOutput() {
		printDeploySummaryJSON(cfg, d, hostIP)
	} else {
		printDeploySummaryText(cfg, d, hostIP)
	}
}

// printDeploySummaryJSON outputs the deploy result as structured JSON.
func printDeploySummaryJSON(cfg *config.Config, d *model.Deployment, hostIP string) {
	base := fmt.Sprintf("http://%s:%d", hostIP, cfg.HostPort)
	result := map[string]interface{}{
		"service":   d.Service,
		"image":     d.Image,
		"model":     d.Model,
		"hostPort":  d.HostPort,
		"modelsDir": cfg.ModelsDir,
		"endpoints": map[string]string{
			"health":     base + "/health",
			"embed":      base + "/embed",
			"embedBatch": base + "/embed/batch",
		},
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printDeploySummaryText outputs the deploy result as human-readable
// text, mirroring the order an operator needs: where the service is,
// then how to operate it.
func printDeploySummaryText(cfg *config.Config, d *model.Deployment, hostIP string) {
	base := fmt.Sprintf("http://%s:%d", hostIP, cfg.HostPort)

	fmt.Printf("Deployed embedding service %q (%s)\n", d.Service, d.Model)
	fmt.Printf("  Image:       %s\n", d.Image)
	fmt.Printf("  Model cache: %s\n", cfg.ModelsDir)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Printf("    Health:      GET  %s/health\n", base)
	fmt.Printf("    Embed:       POST %s/embed        {\"text\": \"...\"}\n", base)
	fmt.Printf("    Batch embed: POST %s/embed/batch  {\"texts\": [\"...\"]}\n", base)
	fmt.Println()
	fmt.Println("  Operations:")
	fmt.Println("    Follow logs:  embedctl logs --follow")
	fmt.Println("    Show status:  embedctl status")
	fmt.Println("    Smoke test:   embedctl smoke")
	fmt.Println("    Stop:         embedctl stop")
	fmt.Println("    Remove:       embedctl remove")
}
