// Package facts derives the fabric-wide fact set from the full collection of
// host variables. Some facts (loopback addressing, AS allocation, link
// peerings) need visibility across all hosts at once, so computation happens
// exactly once per run, before any per-host build task starts. A Facts value
// is immutable after Compute returns and is safe to share across workers.
package facts

import (
	"fmt"
	"net/netip"
	"sort"

	"github.com/vk/fabbuild/internal/model"
)

// Peering describes one side of a point-to-point fabric link.
type Peering struct {
	PeerHostname string
	PeerRouterID string
	PeerAS       uint32
	LocalIface   string
	PeerIface    string
}

// Facts is the shared fact set. All lookup methods are read-only.
type Facts struct {
	fabricName string
	routerIDs  map[string]netip.Addr
	asNumbers  map[string]uint32
	peerings   map[string][]Peering
}

// FabricName returns the name of the fabric the facts were computed for.
func (f *Facts) FabricName() string { return f.fabricName }

// RouterID returns the loopback/router-id address assigned to host.
func (f *Facts) RouterID(host string) string { return f.routerIDs[host].String() }

// AS returns the BGP AS number assigned to host.
func (f *Facts) AS(host string) uint32 { return f.asNumbers[host] }

// Peerings returns the fabric links of host in allocation order. The returned
// slice is shared; callers must not modify it.
func (f *Facts) Peerings(host string) []Peering { return f.peerings[host] }

// Compute derives the fact set from the unpartitioned host-vars map. It is
// pure and deterministic: map iteration order never leaks into the result
// because every allocation walks hosts in sorted order.
func Compute(all map[string]*model.HostVars) (*Facts, error) {
	if len(all) == 0 {
		return nil, fmt.Errorf("cannot compute facts for an empty fabric")
	}

	hostnames := make([]string, 0, len(all))
	for name := range all {
		hostnames = append(hostnames, name)
	}
	sort.Strings(hostnames)

	fabric := all[hostnames[0]].Fabric
	pool, err := netip.ParsePrefix(fabric.LoopbackPool)
	if err != nil {
		return nil, fmt.Errorf("invalid loopback pool %q: %w", fabric.LoopbackPool, err)
	}

	f := &Facts{
		fabricName: fabric.Name,
		routerIDs:  make(map[string]netip.Addr, len(all)),
		asNumbers:  make(map[string]uint32, len(all)),
		peerings:   make(map[string][]Peering, len(all)),
	}

	// Loopback addresses come from the pool in sorted-host order, skipping
	// the network address itself.
	addr := pool.Addr().Next()
	for _, host := range hostnames {
		if !pool.Contains(addr) {
			return nil, fmt.Errorf("loopback pool %q is too small for %d hosts", fabric.LoopbackPool, len(all))
		}
		f.routerIDs[host] = addr
		addr = addr.Next()
	}

	// Spines share the base AS; each leaf gets its own, offset by its
	// position among sorted leaves. An explicit bgp_as always wins.
	leafIndex := 0
	for _, host := range hostnames {
		vars := all[host]
		switch {
		case vars.BGPAS != 0:
			f.asNumbers[host] = vars.BGPAS
		case vars.Role == model.RoleLeaf:
			f.asNumbers[host] = fabric.ASBase + 1 + uint32(leafIndex)
		default:
			f.asNumbers[host] = fabric.ASBase
		}
		if vars.Role == model.RoleLeaf {
			leafIndex++
		}
	}

	// Link allocation: each leaf's uplink list is its port order; the spine
	// side hands out ports in the order links are allocated, which is stable
	// because leaves are walked sorted.
	spinePorts := make(map[string]int, len(all))
	for _, host := range hostnames {
		vars := all[host]
		for i, uplink := range vars.Uplinks {
			peer, ok := all[uplink]
			if !ok {
				return nil, fmt.Errorf("host %q declares unknown uplink %q", host, uplink)
			}
			if peer.Role != model.RoleSpine {
				return nil, fmt.Errorf("host %q uplink %q is not a spine", host, uplink)
			}

			spinePorts[uplink]++
			localIface := fmt.Sprintf("Ethernet%d", i+1)
			peerIface := fmt.Sprintf("Ethernet%d", spinePorts[uplink])

			f.peerings[host] = append(f.peerings[host], Peering{
				PeerHostname: uplink,
				PeerRouterID: f.routerIDs[uplink].String(),
				PeerAS:       f.asNumbers[uplink],
				LocalIface:   localIface,
				PeerIface:    peerIface,
			})
			f.peerings[uplink] = append(f.peerings[uplink], Peering{
				PeerHostname: host,
				PeerRouterID: f.routerIDs[host].String(),
				PeerAS:       f.asNumbers[host],
				LocalIface:   peerIface,
				PeerIface:    localIface,
			})
		}
	}

	return f, nil
}
