// Package hostnet provides host networking helpers for the deploy
// orchestration: port availability probing before launch, and primary
// host IP discovery for the endpoint summary.
package hostnet

import (
	"fmt"
	"net"
)

// Scanner checks whether specific ports are available on the host machine.
//
// It uses the operating system's network stack (net.Listen) to determine
// if a port is free. This is the most reliable method because it asks the
// OS directly, rather than parsing /proc/net/* or relying on external
// commands like `lsof` or `ss` which may require elevated permissions.
//
// The struct is currently stateless, but is defined as a struct so future
// options (bind address, timeout) can be added without breaking the API,
// and so it can be injected as a dependency in tests.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable checks whether a TCP port is free on the host machine.
//
// It attempts net.Listen("tcp", ":port"); if the bind succeeds, the port
// is available and the probe listener is closed immediately.
//
// We bind to all interfaces (":port" rather than "127.0.0.1:port")
// because Docker publishes ports on 0.0.0.0, so the check must cover the
// same address space to avoid false positives.
func (s *Scanner) IsPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}
