package hostnet

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIsPortAvailable_FreePort verifies that a port released by a
// listener is reported as available.
func TestIsPortAvailable_FreePort(t *testing.T) {
	// Grab an ephemeral port from the OS, then release it.
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	scanner := NewScanner()
	assert.True(t, scanner.IsPortAvailable(port),
		"port %d should be available after the listener closed", port)
}

// TestIsPortAvailable_BoundPort verifies that a port held by a live
// listener is reported as unavailable.
func TestIsPortAvailable_BoundPort(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()
	port := listener.Addr().(*net.TCPAddr).Port

	scanner := NewScanner()
	assert.False(t, scanner.IsPortAvailable(port),
		"port %d is bound and should be unavailable", port)
}

// TestPrimaryIP verifies the discovery returns a parseable, non-empty
// IPv4 address regardless of the host's connectivity.
func TestPrimaryIP(t *testing.T) {
	ip := PrimaryIP()
	require.NotEmpty(t, ip)

	parsed := net.ParseIP(ip)
	require.NotNil(t, parsed, "PrimaryIP returned %q, not a valid IP", ip)
	assert.NotNil(t, parsed.To4(), "expected an IPv4 address, got %q", ip)
}
