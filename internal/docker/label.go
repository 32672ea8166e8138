package docker

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmr-tortoise/embedctl/internal/model"
)

// Label key constants define the Docker label keys used to persist
// deployment metadata on the service container. These labels are the
// sole persistence mechanism — there is no state file on disk.
//
// All keys share the "embedctl." prefix to namespace them and avoid
// collisions with labels set by other tools.
const (
	// LabelPrefix is the common prefix for all embedctl labels.
	LabelPrefix = "embedctl."

	// LabelManagedBy identifies containers managed by embedctl.
	// This is the primary label used for filtering and discovery.
	// Key: "embedctl.managed-by", Value: always "embedctl".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelService stores the reserved container name of the deployment.
	LabelService = LabelPrefix + "service"

	// LabelImage stores the image tag the container was launched from.
	LabelImage = LabelPrefix + "image"

	// LabelModel stores the embedding model the service serves
	// (e.g., "nomic-embed-text-v1").
	LabelModel = LabelPrefix + "model"

	// LabelHostPort stores the published host port.
	LabelHostPort = LabelPrefix + "host-port"

	// LabelContainerPort stores the in-container service port.
	LabelContainerPort = LabelPrefix + "container-port"

	// LabelCreatedAt stores the launch timestamp, RFC3339 formatted.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "embedctl"

// BuildLabels constructs the Docker label map for a deployment.
// The labels allow full reconstruction of the Deployment from container
// inspection alone, which is what `embedctl status` relies on.
func BuildLabels(d *model.Deployment) map[string]string {
	return map[string]string{
		LabelManagedBy:     ManagedByValue,
		LabelService:       d.Service,
		LabelImage:         d.Image,
		LabelModel:         d.Model,
		LabelHostPort:      strconv.Itoa(d.HostPort),
		LabelContainerPort: strconv.Itoa(d.ContainerPort),
		// UTC keeps the stored timestamp independent of the host timezone.
		LabelCreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reconstructs a Deployment from Docker container labels.
// This is the inverse of BuildLabels.
//
// All keys are required. Missing keys are collected and reported together
// rather than failing on the first one, so a single error message covers
// everything wrong with a hand-crafted or corrupted container.
//
// State and Container are NOT reconstructed here because they come from
// live Docker container state, not from static label values.
func ParseLabels(labels map[string]string) (*model.Deployment, error) {
	requiredKeys := []string{
		LabelManagedBy,
		LabelService,
		LabelImage,
		LabelModel,
		LabelHostPort,
		LabelContainerPort,
		LabelCreatedAt,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	hostPort, err := strconv.Atoi(labels[LabelHostPort])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelHostPort, labels[LabelHostPort], err)
	}
	containerPort, err := strconv.Atoi(labels[LabelContainerPort])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelContainerPort, labels[LabelContainerPort], err)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	return &model.Deployment{
		Service:       labels[LabelService],
		Image:         labels[LabelImage],
		Model:         labels[LabelModel],
		HostPort:      hostPort,
		ContainerPort: containerPort,
		CreatedAt:     createdAt,
	}, nil
}
