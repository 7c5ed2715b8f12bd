package mcp

import (
	"fmt"
	"net"
)

// PortSearchRange is how many ports above the requested one are tried
// when the requested port is taken.
const PortSearchRange = 10

// FindAvailablePort returns the first port in [start, end] that can be bound
// on the loopback interface.
func FindAvailablePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			_ = listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", start, end)
}
