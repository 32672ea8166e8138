// compose.go inspects the docker-compose.yml that the precondition check
// requires but the launch path does not use.
//
// embedctl starts the service with docker run, so the compose file is
// effectively documentation of the same deployment. When the two drift
// apart (different published port, missing model cache mount, a different
// container name) an operator following the compose file would get a
// different service than the one embedctl manages. InspectCompose detects
// that drift and reports it as warnings; it never fails the deploy.
package precheck

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// composeFile is the subset of the Compose schema the inspection needs.
// Unknown fields are ignored during decoding.
type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

// composeService holds the per-service fields compared against the
// effective docker run settings.
type composeService struct {
	// Image is the image reference, if the service uses a prebuilt image.
	Image string `yaml:"image"`

	// ContainerName is the explicit container name, if set.
	ContainerName string `yaml:"container_name"`

	// Ports lists published ports in "host:container" short syntax.
	Ports []string `yaml:"ports"`

	// Volumes lists bind mounts and named volumes in short syntax
	// ("source:target" or "source:target:mode").
	Volumes []string `yaml:"volumes"`
}

// InspectCompose parses the compose file at path and compares it with the
// launch settings embedctl will actually use. It returns a list of
// human-readable warnings; an empty list means the compose file agrees
// with the direct-run configuration.
//
// A parse failure is returned as an error so the caller can log it as a
// warning too — a malformed compose file must not block the deploy, since
// the launch path never reads it.
func InspectCompose(path, portMapping, mountTarget, containerName string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cf composeFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(cf.Services) == 0 {
		return []string{"docker-compose.yml defines no services"}, nil
	}

	var warnings []string

	if !anyService(cf.Services, func(s composeService) bool {
		for _, p := range s.Ports {
			if p == portMapping {
				return true
			}
		}
		return false
	}) {
		warnings = append(warnings, fmt.Sprintf(
			"docker-compose.yml publishes no service on %s; embedctl will publish %s via docker run",
			portMapping, portMapping))
	}

	if !anyService(cf.Services, func(s composeService) bool {
		for _, v := range s.Volumes {
			if volumeTarget(v) == mountTarget {
				return true
			}
		}
		return false
	}) {
		warnings = append(warnings, fmt.Sprintf(
			"docker-compose.yml mounts nothing at %s; the model cache would not persist under compose",
			mountTarget))
	}

	for svc, s := range cf.Services {
		if s.ContainerName != "" && s.ContainerName != containerName {
			warnings = append(warnings, fmt.Sprintf(
				"docker-compose.yml service %q names its container %q, but embedctl manages %q",
				svc, s.ContainerName, containerName))
		}
	}

	return warnings, nil
}

// anyService reports whether the predicate holds for at least one service.
func anyService(services map[string]composeService, pred func(composeService) bool) bool {
	for _, s := range services {
		if pred(s) {
			return true
		}
	}
	return false
}

// volumeTarget extracts the container-side path from a short-syntax volume
// entry. "source:target" and "source:target:mode" both yield target;
// entries without a colon (anonymous volumes) yield the entry itself.
func volumeTarget(volume string) string {
	parts := strings.Split(volume, ":")
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[1]
	default:
		// Windows-style source paths ("C:\data:/target") would confuse a
		// naive split; the target is the second-to-last segment when a
		// mode suffix is present.
		if parts[len(parts)-1] == "ro" || parts[len(parts)-1] == "rw" || strings.Contains(parts[len(parts)-1], ",") {
			return parts[len(parts)-2]
		}
		return parts[1]
	}
}
