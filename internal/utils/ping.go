package utils

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

// PingService opens and closes one TCP connection to the service URL to
// confirm it is reachable.
func PingService(serviceURL string, timeout time.Duration) error {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	host := parsedURL.Hostname()
	port := parsedURL.Port()

	// Default ports if not specified
	if port == "" {
		switch parsedURL.Scheme {
		case "https":
			port = "443"
		case "bolt", "neo4j":
			port = "7687"
		case "http":
			port = "80"
		default:
			port = "80"
		}
	}

	address := net.JoinHostPort(host, port)

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}

// PingGraph checks reachability of the graph store bolt endpoint
func PingGraph(graphURI string) error {
	return PingService(graphURI, 1500*time.Millisecond)
}
