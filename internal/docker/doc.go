// Package docker provides Docker Engine API wrappers and container
// lifecycle management for the embedctl CLI.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - container label management for persisting deployment metadata
//     (Docker labels are the sole state storage mechanism)
//   - image builds via the docker CLI
//   - container lifecycle operations: run, find, start, stop, remove,
//     teardown, log streaming
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
