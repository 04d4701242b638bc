// ABOUTME: UDP packet dispatch to the configured lighting controllers
// ABOUTME: Unicast fan-out or single-group multicast over one long-lived socket
package dispatch

import (
	"fmt"
	"net"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

// multicastTTL keeps sync packets on the local segment.
const multicastTTL = 1

// Config holds the dispatch destinations, resolved once at startup.
type Config struct {
	Addresses        []string
	Port             int
	Multicast        bool
	MulticastAddress string
}

// Dispatcher sends identical packet bytes to every destination. One
// UDP socket is opened at construction and reused for every packet;
// delivery is fire-and-forget.
type Dispatcher struct {
	conn      *net.UDPConn
	dests     []*net.UDPAddr
	multicast bool

	// writeTo is the datagram send; tests swap it to inject failures.
	writeTo func(b []byte, addr *net.UDPAddr) (int, error)

	sent   uint64
	errors uint64
}

// New resolves every destination and opens the socket. Malformed
// addresses fail here, before the pipeline starts.
func New(cfg Config) (*Dispatcher, error) {
	dests, err := resolve(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("open udp socket: %w", err)
	}

	if cfg.Multicast {
		if err := ipv4.NewPacketConn(conn).SetMulticastTTL(multicastTTL); err != nil {
			log.Warnf("Could not set multicast TTL: %v", err)
		}
	}

	return &Dispatcher{
		conn:      conn,
		dests:     dests,
		multicast: cfg.Multicast,
		writeTo:   conn.WriteToUDP,
	}, nil
}

func resolve(cfg Config) ([]*net.UDPAddr, error) {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("destination port %d out of range", cfg.Port)
	}

	if cfg.Multicast {
		ip := net.ParseIP(cfg.MulticastAddress)
		if ip == nil {
			return nil, fmt.Errorf("malformed multicast address %q", cfg.MulticastAddress)
		}
		if !ip.IsMulticast() {
			return nil, fmt.Errorf("%q is not a multicast group", cfg.MulticastAddress)
		}
		return []*net.UDPAddr{{IP: ip, Port: cfg.Port}}, nil
	}

	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("no unicast destinations configured")
	}
	dests := make([]*net.UDPAddr, 0, len(cfg.Addresses))
	for _, addr := range cfg.Addresses {
		ip := net.ParseIP(addr)
		if ip == nil {
			return nil, fmt.Errorf("malformed destination address %q", addr)
		}
		dests = append(dests, &net.UDPAddr{IP: ip, Port: cfg.Port})
	}
	return dests, nil
}

// Send transmits pkt to every destination. A failed send is logged and
// skipped; the remaining destinations are still attempted. Send never
// aborts the pipeline.
func (d *Dispatcher) Send(pkt []byte) {
	for _, dest := range d.dests {
		if _, err := d.writeTo(pkt, dest); err != nil {
			d.errors++
			log.Warnf("Send to %s failed: %v", dest, err)
			continue
		}
		d.sent++
	}
}

// Sent returns the number of datagrams successfully handed to the
// socket.
func (d *Dispatcher) Sent() uint64 {
	return d.sent
}

// Errors returns the number of failed sends.
func (d *Dispatcher) Errors() uint64 {
	return d.errors
}

// Multicast reports whether the dispatcher is in multicast mode.
func (d *Dispatcher) Multicast() bool {
	return d.multicast
}

// Destinations returns a printable summary of the targets.
func (d *Dispatcher) Destinations() string {
	parts := make([]string, len(d.dests))
	for i, dest := range d.dests {
		parts[i] = dest.String()
	}
	summary := strings.Join(parts, ", ")
	if d.multicast {
		return summary + " (multicast)"
	}
	return summary
}

// Close releases the socket.
func (d *Dispatcher) Close() error {
	return d.conn.Close()
}
