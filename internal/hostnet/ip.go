package hostnet

import (
	"net"
)

// PrimaryIP returns the host's primary outbound IPv4 address, used to
// print LAN-reachable endpoint URLs in the deploy summary.
//
// It opens a UDP "connection" to a public address, which makes the OS
// pick the default route's source address without sending any packet
// (UDP dial performs no handshake). When the host has no route at all,
// it falls back to scanning interface addresses for a non-loopback IPv4,
// and finally to localhost.
func PrimaryIP() string {
	if conn, err := net.Dial("udp4", "8.8.8.8:80"); err == nil {
		defer func() { _ = conn.Close() }()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP != nil {
			return addr.IP.String()
		}
	}

	// Offline fallback: first global unicast IPv4 on any interface.
	if addrs, err := net.InterfaceAddrs(); err == nil {
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip != nil && !ip.IsLoopback() && ip.IsGlobalUnicast() {
				return ip.String()
			}
		}
	}

	return "127.0.0.1"
}
