package core

import (
	"net/netip"
	"slices"

	"github.com/encodeous/olsr/state"
)

// ComputeRoutes rebuilds the routing table from the neighbour, two-hop and topology sets.
// Every edge has unit cost, so a breadth first search from ourselves yields minimal hop counts.
// Adjacency is visited in address order so that equal cost paths always resolve to the same next hop.
func ComputeRoutes(s *state.RouterState, r Router) {
	adj := make(map[netip.Addr][]netip.Addr)
	for key := range s.TwoHop {
		if s.IsSymmetricNeighbour(key.Neighbour) {
			adj[key.Neighbour] = append(adj[key.Neighbour], key.TwoHop)
		}
	}
	for key := range s.Topology {
		adj[key.Last] = append(adj[key.Last], key.Dest)
	}
	for k, v := range adj {
		slices.SortFunc(v, netip.Addr.Compare)
		adj[k] = slices.Compact(v)
	}

	table := state.NewRoutingTable()
	visited := map[netip.Addr]struct{}{s.Id: {}}
	queue := make([]netip.Addr, 0)

	// 10.  Routing Table Calculation
	//   2    The new route entries are added starting with the
	//        symmetric neighbors (h=1) as the destination nodes.
	for _, n := range SymmetricNeighbours(s) {
		visited[n] = struct{}{}
		table.InsertHost(n, n, 1)
		queue = append(queue, n)
	}

	//   3    The new route entries for the destination nodes h+1 hops away
	//        MUST be recorded in the routing table.  ...
	//             R_next_addr  = the R_next_addr of the recorded
	//                            route entry where:
	//                            R_dest_addr == T_last_addr
	//             R_dist       = h+1
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		via := table.Hosts[cur]
		for _, next := range adj[cur] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			table.InsertHost(next, via.NextHop, via.Hops+1)
			queue = append(queue, next)
		}
	}

	// 12.6.  Routing Table Calculation
	//   For each tuple in the association set,
	//   1    If address/netmask of the entry is already in the routing table
	//        with a hop count smaller than the distance to the gateway, the
	//        entry is skipped
	networks := make(map[netip.Prefix]state.Route)
	for key := range s.Associations {
		if key.Gateway == s.Id || slices.Contains(s.Networks, key.Network) {
			continue
		}
		gw, ok := table.Hosts[key.Gateway]
		if !ok {
			continue
		}
		cand := state.Route{
			Dest:    key.Network,
			NextHop: gw.NextHop,
			Hops:    gw.Hops,
			Gateway: key.Gateway,
		}
		cur, exists := networks[key.Network]
		if !exists || cand.Hops < cur.Hops || (cand.Hops == cur.Hops && cand.Gateway.Less(cur.Gateway)) {
			networks[key.Network] = cand
		}
	}
	for _, route := range networks {
		table.InsertNetwork(route)
	}

	s.Routes = table
	r.Log(RoutesRecomputed, "routes recomputed", "hosts", len(table.Hosts), "networks", len(table.Networks))
}
