// Package config defines the deployment configuration for embedctl.
//
// The configuration replaces the ambient shell state a deploy script would
// rely on (current directory, hardcoded names, implicit environment) with
// an explicit value threaded through every orchestration step.
//
// Resolution order, lowest to highest precedence:
//  1. Built-in defaults (the fixed values of the original deployment)
//  2. An optional embedctl.json manifest in the working directory
//  3. Command-line flags
//
// The manifest is JSONC (JSON with comments), parsed the same way
// devcontainer.json files are: comments are stripped with
// github.com/tidwall/jsonc before decoding with encoding/json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/embedctl/internal/model"
)

// Default values mirror the fixed settings of the embedding service
// deployment: a Flask app serving nomic-embed-text-v1 on port 5000 with
// a persistent model cache under ./models.
const (
	// DefaultImageTag is the image tag used for builds and launches.
	DefaultImageTag = "nomic-embed-api:latest"

	// DefaultContainerName is the reserved container name. At most one
	// container with this name exists at a time; teardown before launch
	// enforces it.
	DefaultContainerName = "nomic-embed-api"

	// DefaultPort is both the published host port and the port the
	// service listens on inside the container.
	DefaultPort = 5000

	// DefaultModelsSubdir is the models cache directory, relative to the
	// working directory. It is bind-mounted into the container so model
	// downloads survive redeploys.
	DefaultModelsSubdir = "models"

	// DefaultModelsMount is the mount point of the models cache inside
	// the container. Must match the cache_folder the service uses.
	DefaultModelsMount = "/app/models"

	// DefaultRestartPolicy keeps the service running across daemon
	// restarts unless explicitly stopped.
	DefaultRestartPolicy = "unless-stopped"

	// DefaultModelName is the embedding model the service serves.
	DefaultModelName = "nomic-embed-text-v1"

	// DefaultReadinessTimeout bounds the post-launch health polling.
	// First deploys download the model inside the container, which can
	// take a few minutes on slow links.
	DefaultReadinessTimeout = 3 * time.Minute

	// DefaultSmokeText is the sample text sent to POST /embed during
	// the smoke test.
	DefaultSmokeText = "The quick brown fox jumps over the lazy dog."

	// ManifestName is the optional per-directory manifest file name.
	ManifestName = "embedctl.json"
)

// RequiredFiles lists the files that must exist in the working directory
// before a deploy proceeds. The check is all-or-nothing: every missing
// name is reported together and nothing downstream runs.
//
// docker-compose.yml is required for deployment-context completeness even
// though embedctl launches via docker run; see internal/precheck for the
// consistency warning that covers the gap.
var RequiredFiles = []string{
	"app.py",
	"requirements.txt",
	"Dockerfile",
	"docker-compose.yml",
}

// Config holds the full deployment configuration for a single embedctl run.
type Config struct {
	// WorkDir is the directory containing the service sources and the
	// image build context. Always absolute after Finalize.
	WorkDir string `json:"workDir"`

	// ModelsDir is the host-side model cache directory, bind-mounted
	// into the container. Derived from WorkDir when empty.
	ModelsDir string `json:"modelsDir"`

	// ImageTag is the tag applied by the build and used by the launch.
	ImageTag string `json:"imageTag"`

	// ContainerName is the reserved container name for the deployment.
	ContainerName string `json:"containerName"`

	// HostPort is the port published on the host.
	HostPort int `json:"hostPort"`

	// ContainerPort is the port the service listens on in the container.
	ContainerPort int `json:"containerPort"`

	// RestartPolicy is the Docker restart policy for the instance.
	RestartPolicy string `json:"restartPolicy"`

	// Env is the environment applied to the launched container.
	// The defaults pin the service to production mode with unbuffered
	// output so logs stream promptly.
	Env map[string]string `json:"env"`

	// ModelName is recorded in the container labels and reported by
	// status output. Informational; the served model is baked into the
	// image.
	ModelName string `json:"modelName"`

	// ReadinessTimeout is the hard deadline for post-launch health
	// polling. Exceeding it fails the deploy with a readiness error.
	ReadinessTimeout time.Duration `json:"readinessTimeout"`

	// SmokeText is the sample input for the embed smoke test.
	SmokeText string `json:"smokeText"`
}

// Default returns a Config populated with the built-in defaults.
// WorkDir is left empty; Finalize resolves it.
func Default() *Config {
	return &Config{
		ImageTag:      DefaultImageTag,
		ContainerName: DefaultContainerName,
		HostPort:      DefaultPort,
		ContainerPort: DefaultPort,
		RestartPolicy: DefaultRestartPolicy,
		Env: map[string]string{
			"FLASK_ENV":        "production",
			"PYTHONUNBUFFERED": "1",
		},
		ModelName:        DefaultModelName,
		ReadinessTimeout: DefaultReadinessTimeout,
		SmokeText:        DefaultSmokeText,
	}
}

// Finalize resolves derived and relative values: WorkDir defaults to the
// current directory and is made absolute, and ModelsDir defaults to
// <WorkDir>/models. Call after all overrides are applied and before
// Validate.
func (c *Config) Finalize() error {
	if c.WorkDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		c.WorkDir = cwd
	}

	abs, err := filepath.Abs(c.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to resolve working directory %q: %w", c.WorkDir, err)
	}
	c.WorkDir = abs

	if c.ModelsDir == "" {
		c.ModelsDir = filepath.Join(c.WorkDir, DefaultModelsSubdir)
	} else if !filepath.IsAbs(c.ModelsDir) {
		c.ModelsDir = filepath.Join(c.WorkDir, c.ModelsDir)
	}

	return nil
}

// validRestartPolicies are the restart policies Docker accepts.
// "on-failure" may carry a retry count suffix, which embedctl does not
// support — the bare form is enough for a single long-running service.
var validRestartPolicies = map[string]bool{
	"no":             true,
	"always":         true,
	"on-failure":     true,
	"unless-stopped": true,
}

// Validate checks the configuration for values Docker or the orchestrator
// would reject later. It returns the first problem found.
func (c *Config) Validate() error {
	if err := model.ValidateName(c.ContainerName); err != nil {
		return err
	}
	if c.ImageTag == "" {
		return fmt.Errorf("image tag must not be empty")
	}
	if err := model.ValidatePort(c.HostPort); err != nil {
		return fmt.Errorf("host port: %w", err)
	}
	if err := model.ValidatePort(c.ContainerPort); err != nil {
		return fmt.Errorf("container port: %w", err)
	}
	if !validRestartPolicies[c.RestartPolicy] {
		return fmt.Errorf("invalid restart policy %q (valid: no, always, on-failure, unless-stopped)", c.RestartPolicy)
	}
	if c.ReadinessTimeout <= 0 {
		return fmt.Errorf("readiness timeout must be positive, got %s", c.ReadinessTimeout)
	}
	return nil
}

// PortMapping returns the Docker port publication in "host:container"
// format, as passed to docker run -p.
func (c *Config) PortMapping() string {
	return fmt.Sprintf("%d:%d", c.HostPort, c.ContainerPort)
}

// ModelsMount returns the bind-mount specification for the model cache
// in "hostPath:containerPath" format, as passed to docker run -v.
func (c *Config) ModelsMount() string {
	return c.ModelsDir + ":" + DefaultModelsMount
}

// manifest mirrors Config with optional fields for JSONC decoding.
// Pointer and zero-value checks distinguish "absent" from "explicit zero"
// where it matters (ports, timeout).
type manifest struct {
	ModelsDir        string            `json:"modelsDir,omitempty"`
	ImageTag         string            `json:"imageTag,omitempty"`
	ContainerName    string            `json:"containerName,omitempty"`
	HostPort         *int              `json:"hostPort,omitempty"`
	ContainerPort    *int              `json:"containerPort,omitempty"`
	RestartPolicy    string            `json:"restartPolicy,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
	ModelName        string            `json:"modelName,omitempty"`
	ReadinessTimeout string            `json:"readinessTimeout,omitempty"`
	SmokeText        string            `json:"smokeText,omitempty"`
}

// LoadManifest reads an embedctl.json manifest and applies its settings
// on top of the given Config. The file may contain JSONC comments and
// trailing commas; jsonc.ToJSON normalizes it to strict JSON first.
//
// Env entries are merged into the existing environment rather than
// replacing it, so a manifest can add variables without re-stating the
// production-mode defaults.
func LoadManifest(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	if m.ModelsDir != "" {
		cfg.ModelsDir = m.ModelsDir
	}
	if m.ImageTag != "" {
		cfg.ImageTag = m.ImageTag
	}
	if m.ContainerName != "" {
		cfg.ContainerName = m.ContainerName
	}
	if m.HostPort != nil {
		cfg.HostPort = *m.HostPort
	}
	if m.ContainerPort != nil {
		cfg.ContainerPort = *m.ContainerPort
	}
	if m.RestartPolicy != "" {
		cfg.RestartPolicy = m.RestartPolicy
	}
	if m.ModelName != "" {
		cfg.ModelName = m.ModelName
	}
	if m.SmokeText != "" {
		cfg.SmokeText = m.SmokeText
	}
	if m.ReadinessTimeout != "" {
		d, err := time.ParseDuration(m.ReadinessTimeout)
		if err != nil {
			return fmt.Errorf("invalid readinessTimeout %q in %s: %w", m.ReadinessTimeout, path, err)
		}
		cfg.ReadinessTimeout = d
	}
	if len(m.Env) > 0 {
		if cfg.Env == nil {
			cfg.Env = make(map[string]string, len(m.Env))
		}
		for k, v := range m.Env {
			cfg.Env[k] = v
		}
	}

	return nil
}

// FindManifest returns the path to the embedctl.json manifest in the
// given directory, or "" if none exists. A manifest is always optional.
func FindManifest(dir string) string {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
