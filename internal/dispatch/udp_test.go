// ABOUTME: Tests for UDP dispatch
// ABOUTME: Verifies fan-out, failure isolation and startup validation
package dispatch

import (
	"bytes"
	"fmt"
	"net"
	"testing"
	"time"
)

func TestNewRejectsMalformedConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"no destinations", Config{Port: 11988}},
		{"malformed address", Config{Addresses: []string{"not-an-ip"}, Port: 11988}},
		{"bad port", Config{Addresses: []string{"127.0.0.1"}, Port: 0}},
		{"malformed group", Config{Multicast: true, MulticastAddress: "nope", Port: 11988}},
		{"unicast group", Config{Multicast: true, MulticastAddress: "192.168.1.1", Port: 11988}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); err == nil {
				t.Error("expected startup error")
			}
		})
	}
}

// listen opens a localhost UDP listener and returns it with its port.
func listen(t *testing.T) (*net.UDPConn, int) {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to open listener: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().(*net.UDPAddr).Port
}

func TestUnicastFanOut(t *testing.T) {
	recvA, portA := listen(t)
	recvB, _ := listen(t)

	d, err := New(Config{Addresses: []string{"127.0.0.1", "127.0.0.1"}, Port: portA})
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	defer d.Close()

	// The config carries one shared port; point the second destination
	// at the second listener so each send lands somewhere observable.
	d.dests[1] = recvB.LocalAddr().(*net.UDPAddr)

	pkt := []byte{0x30, 0x30, 0x30, 0x30, 0x32, 0x00, 0xAA, 0xBB}
	d.Send(pkt)

	for i, conn := range []*net.UDPConn{recvA, recvB} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 64)
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("listener %d received nothing: %v", i, err)
		}
		if !bytes.Equal(buf[:n], pkt) {
			t.Errorf("listener %d got %x, want %x", i, buf[:n], pkt)
		}
	}

	if d.Sent() != 2 {
		t.Errorf("sent counter %d, want 2", d.Sent())
	}
	if d.Errors() != 0 {
		t.Errorf("error counter %d, want 0", d.Errors())
	}
}

func TestSendFailureDoesNotSuppressOthers(t *testing.T) {
	d, err := New(Config{Addresses: []string{"127.0.0.1", "127.0.0.2", "127.0.0.3"}, Port: 11988})
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	defer d.Close()

	var delivered []string
	d.writeTo = func(b []byte, addr *net.UDPAddr) (int, error) {
		if addr.IP.String() == "127.0.0.2" {
			return 0, fmt.Errorf("host unreachable")
		}
		delivered = append(delivered, addr.IP.String())
		return len(b), nil
	}

	d.Send(make([]byte, 44))

	if len(delivered) != 2 {
		t.Fatalf("delivered to %d destinations, want 2", len(delivered))
	}
	if delivered[0] != "127.0.0.1" || delivered[1] != "127.0.0.3" {
		t.Errorf("delivered to %v; the failing destination must not block the rest", delivered)
	}
	if d.Sent() != 2 {
		t.Errorf("sent counter %d, want 2", d.Sent())
	}
	if d.Errors() != 1 {
		t.Errorf("error counter %d, want 1", d.Errors())
	}
}

func TestMulticastSendsOneDatagram(t *testing.T) {
	d, err := New(Config{Multicast: true, MulticastAddress: "239.0.0.1", Port: 11988})
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	defer d.Close()

	var sends []*net.UDPAddr
	d.writeTo = func(b []byte, addr *net.UDPAddr) (int, error) {
		sends = append(sends, addr)
		return len(b), nil
	}

	d.Send(make([]byte, 44))
	d.Send(make([]byte, 44))

	if len(sends) != 2 {
		t.Fatalf("%d datagrams for 2 packets, want exactly one each", len(sends))
	}
	for _, addr := range sends {
		if addr.IP.String() != "239.0.0.1" || addr.Port != 11988 {
			t.Errorf("datagram addressed to %v, want 239.0.0.1:11988", addr)
		}
	}
	if !d.Multicast() {
		t.Error("dispatcher should report multicast mode")
	}
}

func TestDestinationsSummary(t *testing.T) {
	d, err := New(Config{Addresses: []string{"192.168.1.50"}, Port: 11988})
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	defer d.Close()

	want := "192.168.1.50:11988"
	if got := d.Destinations(); got != want {
		t.Errorf("destinations %q, want %q", got, want)
	}
}
