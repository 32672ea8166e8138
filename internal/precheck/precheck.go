// Package precheck verifies the deployment preconditions before any
// container operation runs.
//
// Two checks live here:
//   - required-file verification: the working directory must contain the
//     four files the deployment depends on, and every missing name is
//     reported together so the operator can fix them in one pass
//   - compose drift inspection: docker-compose.yml is required but embedctl
//     launches via docker run, so the compose definition can silently
//     diverge from the effective launch settings; InspectCompose surfaces
//     that divergence as warnings instead of resolving it either way
package precheck

import (
	"fmt"
	"os"
	"path/filepath"
)

// MissingFiles returns the names from required that do not exist in dir.
// The order of the input is preserved so reports are stable.
func MissingFiles(dir string, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// EnsureDirs creates the working directory and the models cache directory
// if they do not already exist. The operation is idempotent.
func EnsureDirs(workDir, modelsDir string) error {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("failed to create working directory %s: %w", workDir, err)
	}
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create models directory %s: %w", modelsDir, err)
	}
	return nil
}
