package state

import (
	"fmt"
	"maps"
	"net/netip"
	"slices"
	"strings"

	"github.com/gaissmai/bart"
)

type Route struct {
	Dest    netip.Prefix
	NextHop netip.Addr
	Hops    int
	// Gateway is the node announcing Dest through HNA, invalid for host routes
	Gateway netip.Addr
}

func (r Route) String() string {
	if r.Gateway.IsValid() {
		return fmt.Sprintf("(nh: %s, hops: %d, gw: %s)", r.NextHop, r.Hops, r.Gateway)
	}
	return fmt.Sprintf("(nh: %s, hops: %d)", r.NextHop, r.Hops)
}

// RoutingTable is rebuilt from scratch on every computation, entries absent from the latest computation simply vanish.
type RoutingTable struct {
	Hosts    map[netip.Addr]Route
	Networks map[netip.Prefix]Route
	// Forward contains host and network routes for longest prefix match
	Forward *bart.Table[Route]
}

func NewRoutingTable() *RoutingTable {
	return &RoutingTable{
		Hosts:    make(map[netip.Addr]Route),
		Networks: make(map[netip.Prefix]Route),
		Forward:  new(bart.Table[Route]),
	}
}

func HostPrefix(addr netip.Addr) netip.Prefix {
	return netip.PrefixFrom(addr, addr.BitLen())
}

func (t *RoutingTable) InsertHost(dest, nh netip.Addr, hops int) {
	r := Route{
		Dest:    HostPrefix(dest),
		NextHop: nh,
		Hops:    hops,
	}
	t.Hosts[dest] = r
	// replaces a /32 association inserted earlier
	t.Forward.Insert(r.Dest, r)
}

func (t *RoutingTable) InsertNetwork(r Route) {
	t.Networks[r.Dest] = r
	if _, ok := t.Hosts[r.Dest.Addr()]; ok && r.Dest.IsSingleIP() {
		// host routes take precedence over a /32 association
		return
	}
	t.Forward.Insert(r.Dest, r)
}

// Lookup returns the route used to forward towards addr
func (t *RoutingTable) Lookup(addr netip.Addr) (Route, bool) {
	return t.Forward.Lookup(addr)
}

func (t *RoutingTable) Len() int {
	return len(t.Hosts) + len(t.Networks)
}

func (t *RoutingTable) String() string {
	rt := make([]string, 0, t.Len())
	for _, k := range slices.SortedFunc(maps.Keys(t.Hosts), netip.Addr.Compare) {
		rt = append(rt, fmt.Sprintf("%s via %s", k, t.Hosts[k]))
	}
	for _, k := range slices.SortedFunc(maps.Keys(t.Networks), comparePrefix) {
		rt = append(rt, fmt.Sprintf("%s via %s", k, t.Networks[k]))
	}
	return strings.Join(rt, "\n")
}

func comparePrefix(a, b netip.Prefix) int {
	if c := a.Addr().Compare(b.Addr()); c != 0 {
		return c
	}
	return a.Bits() - b.Bits()
}
