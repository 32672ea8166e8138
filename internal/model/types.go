// Package model defines the domain types for the embedctl CLI.
//
// All entities here are transient representations reconstructed from
// Docker API queries at runtime. Deployment metadata is persisted via
// Docker container labels, so there is no state file on disk.
package model

import (
	"fmt"
	"regexp"
	"time"
)

// InstanceState represents the lifecycle state of the deployed
// embedding service instance as observed from Docker.
//
//	[Deployed] → Running → Stopped ⇄ Running → [Removed]
type InstanceState string

const (
	// StateRunning indicates the service container is running.
	StateRunning InstanceState = "running"

	// StateStopped indicates the service container exists but is not
	// running. Image and model cache are preserved.
	StateStopped InstanceState = "stopped"

	// StateMissing indicates no container with the reserved name exists.
	StateMissing InstanceState = "missing"
)

// String returns the string representation of InstanceState.
func (s InstanceState) String() string {
	return string(s)
}

// IsValid checks whether the InstanceState value is one of the
// predefined valid states.
func (s InstanceState) IsValid() bool {
	switch s {
	case StateRunning, StateStopped, StateMissing:
		return true
	default:
		return false
	}
}

// Deployment represents the embedding service deployment — the single
// aggregate entity in the domain. At most one deployment exists per host,
// identified by the reserved container name.
//
// All fields except Container are reconstructed from Docker container
// labels (see the label schema in internal/docker).
type Deployment struct {
	// Service is the reserved container name identifying the deployment.
	Service string `json:"service"`

	// Image is the image tag the container was started from.
	Image string `json:"image"`

	// Model is the embedding model served by the instance
	// (e.g., "nomic-embed-text-v1").
	Model string `json:"model"`

	// HostPort is the published port on the host machine.
	HostPort int `json:"hostPort"`

	// ContainerPort is the port the service listens on inside the container.
	ContainerPort int `json:"containerPort"`

	// State is the current lifecycle state of the deployment.
	State InstanceState `json:"state"`

	// Container holds runtime information about the Docker container
	// backing this deployment. Nil when State is StateMissing.
	Container *ContainerInfo `json:"container,omitempty"`

	// CreatedAt is the timestamp when this deployment was launched.
	CreatedAt time.Time `json:"createdAt"`
}

// ContainerInfo holds runtime information about a Docker container.
// This data is fetched dynamically from the Docker API, not persisted.
type ContainerInfo struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// Image is the image reference the container was created from.
	Image string `json:"image"`

	// State is the Docker container state (e.g., "running", "exited").
	State string `json:"state"`

	// Status is Docker's human-readable status line
	// (e.g., "Up 2 minutes", "Exited (0) 5 seconds ago").
	Status string `json:"status"`

	// Labels is the full set of Docker labels on the container,
	// including the embedctl management labels (embedctl.* prefix).
	Labels map[string]string `json:"labels,omitempty"`
}

// HealthReport is the decoded response of the service's GET /health route.
type HealthReport struct {
	// Status is the service-reported health status ("healthy" on success).
	Status string `json:"status"`

	// Model is the embedding model the service has loaded.
	Model string `json:"model"`

	// Message carries the error detail when the service reports a failure
	// (e.g., "Model not loaded").
	Message string `json:"message,omitempty"`
}

// EmbedReport summarizes a POST /embed response. The embedding vector
// itself is dropped after decoding — the CLI only reports metadata.
type EmbedReport struct {
	// Dimensions is the length of the returned embedding vector.
	Dimensions int `json:"dimensions"`

	// Model is the model that produced the embedding.
	Model string `json:"model"`

	// ProcessingTime is the server-side inference time in seconds.
	ProcessingTime float64 `json:"processing_time"`
}

// BatchEmbedReport summarizes a POST /embed/batch response.
type BatchEmbedReport struct {
	// Count is the number of embeddings returned.
	Count int `json:"count"`

	// Dimensions is the length of each embedding vector.
	Dimensions int `json:"dimensions"`

	// Model is the model that produced the embeddings.
	Model string `json:"model"`

	// ProcessingTime is the server-side inference time in seconds.
	ProcessingTime float64 `json:"processing_time"`
}

// nameRegex validates container names: alphanumeric plus hyphens,
// underscores, and dots, starting with an alphanumeric character.
// This matches Docker's container naming rules closely enough for
// early validation; Docker itself remains the final authority.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidateName checks whether the given name is usable as a Docker
// container name for the deployment.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("container name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid container name %q: must start with an alphanumeric character and contain only alphanumerics, hyphens, underscores, and dots", name)
	}
	return nil
}

// ValidatePort checks whether the given port number is in the valid
// TCP port range.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", port)
	}
	return nil
}

// ExitCode defines the CLI exit codes. Each fatal deployment step maps
// to its own code so scripts and CI can distinguish failure kinds,
// instead of the blanket exit 1 a shell wrapper would produce.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitMissingPrereqs indicates one or more required deployment files
	// (app.py, requirements.txt, Dockerfile, docker-compose.yml) are
	// absent from the working directory.
	ExitMissingPrereqs ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitBuildFailed indicates the image build failed.
	ExitBuildFailed ExitCode = 4

	// ExitLaunchFailed indicates the container could not be started.
	ExitLaunchFailed ExitCode = 5

	// ExitPortConflict indicates the host port is already in use.
	ExitPortConflict ExitCode = 6

	// ExitReadinessTimeout indicates the service did not report healthy
	// within the readiness deadline after launch.
	ExitReadinessTimeout ExitCode = 7

	// ExitInstanceNotFound indicates no deployment with the reserved
	// container name exists.
	ExitInstanceNotFound ExitCode = 8

	// ExitUserCancelled indicates the user declined a confirmation prompt.
	ExitUserCancelled ExitCode = 9
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
