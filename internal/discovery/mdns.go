// Package discovery finds WiFi-enabled CommandStations on the local
// network after an upload, confirming the device joined the network
// and reporting where a throttle can connect.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

const (
	// ServiceType is the mDNS service a CommandStation advertises for
	// WiThrottle clients
	ServiceType = "_withrottle._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the port a CommandStation listens on when the
	// advertisement omits one
	DefaultPort = 2560
)

// CommandStation is one discovered throttle server.
type CommandStation struct {
	Name         string
	Hostname     string
	IP           string
	Port         int
	Metadata     map[string]string
	DiscoveredAt time.Time
}

// Address returns the host:port a throttle should connect to.
func (c CommandStation) Address() string {
	return fmt.Sprintf("%s:%d", c.IP, c.Port)
}

// Scanner handles mDNS CommandStation discovery.
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// effectiveTimeout falls back to the default, so a zero-value Scanner
// still waits for responses instead of expiring immediately.
func (s *Scanner) effectiveTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultScanTimeout
	}
	return s.Timeout
}

// Scan discovers every CommandStation advertising a throttle service
// on the local network.
func (s *Scanner) Scan() ([]CommandStation, error) {
	return s.ScanWithContext(context.Background())
}

// ScanWithContext discovers devices with a custom context.
func (s *Scanner) ScanWithContext(ctx context.Context) ([]CommandStation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.effectiveTimeout())
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	stations := make([]CommandStation, 0)
	done := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(done)
		for entry := range entries {
			if station, ok := parseServiceEntry(entry); ok {
				stations = append(stations, station)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	return stations, nil
}

// RunScan performs Scan on a worker. The terminal success envelope
// carries the []CommandStation list.
func (s *Scanner) RunScan() *tasks.Runner {
	return tasks.Run(tasks.ClassTool, "Scan for WiFi CommandStations", func() (any, error) {
		return s.Scan()
	})
}

// parseServiceEntry converts a zeroconf service entry to a
// CommandStation. Entries with no usable address are rejected.
func parseServiceEntry(entry *zeroconf.ServiceEntry) (CommandStation, bool) {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return CommandStation{}, false
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	name := entry.Instance
	if name == "" {
		name = strings.TrimSuffix(entry.HostName, ".")
	}

	return CommandStation{
		Name:         name,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}, true
}
