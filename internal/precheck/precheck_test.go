package precheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// required mirrors the deploy precondition list. Kept local so these
// tests stay decoupled from the config package.
var required = []string{"app.py", "requirements.txt", "Dockerfile", "docker-compose.yml"}

// writeFiles creates empty files with the given names in dir.
func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{}, 0o644))
	}
}

// TestMissingFiles verifies that every absent required file is reported,
// in input order, and that a complete directory reports nothing.
func TestMissingFiles(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, required...)

		assert.Empty(t, MissingFiles(dir, required))
	})

	t.Run("all missing", func(t *testing.T) {
		dir := t.TempDir()

		assert.Equal(t, required, MissingFiles(dir, required))
	})

	t.Run("some missing, order preserved", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "requirements.txt", "docker-compose.yml")

		assert.Equal(t, []string{"app.py", "Dockerfile"}, MissingFiles(dir, required))
	})
}

// TestEnsureDirs verifies idempotent directory creation.
func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	workDir := filepath.Join(base, "deploy")
	modelsDir := filepath.Join(workDir, "models")

	require.NoError(t, EnsureDirs(workDir, modelsDir))
	assert.DirExists(t, workDir)
	assert.DirExists(t, modelsDir)

	// Second call must succeed with the directories already present.
	require.NoError(t, EnsureDirs(workDir, modelsDir))
}

// writeCompose writes a docker-compose.yml with the given content and
// returns its path.
func writeCompose(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestInspectCompose_Agrees verifies that a compose file matching the
// direct-run settings produces no warnings.
func TestInspectCompose_Agrees(t *testing.T) {
	path := writeCompose(t, `
services:
  embed-api:
    build: .
    container_name: nomic-embed-api
    ports:
      - "5000:5000"
    volumes:
      - ./models:/app/models
`)

	warnings, err := InspectCompose(path, "5000:5000", "/app/models", "nomic-embed-api")
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

// TestInspectCompose_Drift verifies each drift condition is reported.
func TestInspectCompose_Drift(t *testing.T) {
	t.Run("different published port", func(t *testing.T) {
		path := writeCompose(t, `
services:
  embed-api:
    ports:
      - "8080:5000"
    volumes:
      - ./models:/app/models
`)
		warnings, err := InspectCompose(path, "5000:5000", "/app/models", "nomic-embed-api")
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "publishes no service on 5000:5000")
	})

	t.Run("missing model cache mount", func(t *testing.T) {
		path := writeCompose(t, `
services:
  embed-api:
    ports:
      - "5000:5000"
`)
		warnings, err := InspectCompose(path, "5000:5000", "/app/models", "nomic-embed-api")
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "/app/models")
	})

	t.Run("conflicting container name", func(t *testing.T) {
		path := writeCompose(t, `
services:
  embed-api:
    container_name: embedding-service
    ports:
      - "5000:5000"
    volumes:
      - ./models:/app/models
`)
		warnings, err := InspectCompose(path, "5000:5000", "/app/models", "nomic-embed-api")
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], `"embedding-service"`)
	})

	t.Run("no services", func(t *testing.T) {
		path := writeCompose(t, "services: {}\n")
		warnings, err := InspectCompose(path, "5000:5000", "/app/models", "nomic-embed-api")
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "no services")
	})
}

// TestInspectCompose_Errors verifies unreadable and malformed files are
// surfaced as errors for the caller to downgrade to warnings.
func TestInspectCompose_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := InspectCompose(filepath.Join(t.TempDir(), "docker-compose.yml"),
			"5000:5000", "/app/models", "nomic-embed-api")
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeCompose(t, "services: [not: a: mapping\n")
		_, err := InspectCompose(path, "5000:5000", "/app/models", "nomic-embed-api")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse")
	})
}

// TestVolumeTarget covers the short-syntax volume forms.
func TestVolumeTarget(t *testing.T) {
	testCases := []struct {
		entry  string
		target string
	}{
		{"./models:/app/models", "/app/models"},
		{"./models:/app/models:ro", "/app/models"},
		{"modelcache:/app/models", "/app/models"},
		{"/app/anonymous", "/app/anonymous"},
	}

	for _, tc := range testCases {
		t.Run(tc.entry, func(t *testing.T) {
			assert.Equal(t, tc.target, volumeTarget(tc.entry))
		})
	}
}
