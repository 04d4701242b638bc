// ABOUTME: mDNS discovery of WLED controllers on the local network
// ABOUTME: Browses _wled._tcp and harvests unicast destination addresses
package discovery

import (
	"time"

	"github.com/hashicorp/mdns"
	log "github.com/sirupsen/logrus"
)

// serviceType is the service WLED firmware advertises.
const serviceType = "_wled._tcp"

// Controller describes a discovered WLED device.
type Controller struct {
	Name string
	Host string
	Port int
}

// Browse queries the local network for WLED controllers for the given
// window and returns the unique devices found. An empty result is not
// an error; the caller decides whether to fail without destinations.
func Browse(timeout time.Duration) ([]Controller, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan []Controller, 1)

	go func() {
		var found []Controller
		seen := make(map[string]bool)
		for entry := range entries {
			if entry.AddrV4 == nil {
				continue
			}
			host := entry.AddrV4.String()
			if seen[host] {
				continue
			}
			seen[host] = true
			log.Infof("Discovered controller: %s at %s:%d", entry.Name, host, entry.Port)
			found = append(found, Controller{
				Name: entry.Name,
				Host: host,
				Port: entry.Port,
			})
		}
		done <- found
	}()

	params := &mdns.QueryParam{
		Service: serviceType,
		Domain:  "local",
		Timeout: timeout,
		Entries: entries,
	}

	err := mdns.Query(params)
	close(entries)
	found := <-done
	return found, err
}

// Addresses extracts the host addresses of the given controllers, in
// discovery order.
func Addresses(controllers []Controller) []string {
	addrs := make([]string, len(controllers))
	for i, c := range controllers {
		addrs[i] = c.Host
	}
	return addrs
}
