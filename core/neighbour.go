package core

import (
	"maps"
	"net/netip"
	"time"

	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
)

// UpdateNeighbourStatus upserts the neighbour tuple of addr. The latest HELLO always wins for willingness.
// It returns true if the tuple was created or changed.
func UpdateNeighbourStatus(s *state.RouterState, r Router, addr netip.Addr, willingness uint8, isSym bool) bool {
	status := state.NotSym
	if isSym {
		status = state.Sym
	}
	n, ok := s.Neighbours[addr]
	if !ok {
		n = &state.NeighbourTuple{
			Addr: addr,
		}
		s.Neighbours[addr] = n
		r.Log(NeighbourAdded, "new neighbour", "neigh", addr, "status", status)
	}
	changed := !ok || n.Status != status || n.Willingness != willingness
	n.Status = status
	n.Willingness = willingness
	return changed
}

// Process2Hop updates the two-hop set from the neighbour groups of a HELLO sent by sender.
func Process2Hop(s *state.RouterState, r Router, sender netip.Addr, hello *protocol.Hello, now time.Time) bool {
	validity := hello.Htime * time.Duration(state.HoldMultiplier)
	sym := s.IsSymmetricNeighbour(sender)
	changed := false
	for _, group := range hello.Groups {
		nt := group.Code.NeighbourType()
		for _, addr := range group.Addresses {
			if addr == s.Id {
				continue
			}
			key := state.TwoHopKey{Neighbour: sender, TwoHop: addr}
			switch nt {
			case protocol.SymNeigh, protocol.MprNeigh:
				// 8.2.1.  HELLO Message Processing
				//   if the Originator Address is the main address of a
				//   L_neighbor_iface_addr from a link tuple included in the Link Set with
				//          L_SYM_time >= current time (not expired)
				//   then the 2-hop Neighbor Set SHOULD be updated
				if !sym {
					continue
				}
				th, ok := s.TwoHop[key]
				if !ok {
					th = &state.TwoHopTuple{TwoHopKey: key}
					s.TwoHop[key] = th
					r.Log(TwoHopAdded, "new two hop neighbour", "neigh", sender, "two_hop", addr)
					changed = true
				}
				th.Expiry = now.Add(validity)
			case protocol.NotNeigh:
				//   if the Neighbor Type is equal to NOT_NEIGH, all 2-hop tuples
				//   where:
				//        N_neighbor_main_addr == Originator
				//                                Address, AND
				//        N_2hop_addr          == main address of the
				//                                2-hop neighbor
				//   are deleted.
				if _, ok := s.TwoHop[key]; ok {
					delete(s.TwoHop, key)
					r.Log(TwoHopRemoved, "two hop neighbour retracted", "neigh", sender, "two_hop", addr)
					changed = true
				}
			}
		}
	}
	return changed
}

// ProcessMprSelectors updates the MPR selector entry of sender, bumping the ANSN when the set changes.
func ProcessMprSelectors(s *state.RouterState, r Router, sender netip.Addr, hello *protocol.Hello, now time.Time) bool {
	validity := hello.Htime * time.Duration(state.HoldMultiplier)
	selected, listed := false, false
	for _, group := range hello.Groups {
		for _, addr := range group.Addresses {
			if addr != s.Id {
				continue
			}
			listed = true
			if group.Code.NeighbourType() == protocol.MprNeigh {
				selected = true
			}
		}
	}
	if !listed {
		return false
	}

	// 8.4.1.  HELLO Message Processing
	//   If a node finds one of its own interface addresses in the list with
	//   a Neighbor Type equal to MPR_NEIGH, information from the HELLO
	//   message must be recorded in the MPR Selector Set.
	_, exists := s.MprSelectors[sender]
	if selected && s.IsSymmetricNeighbour(sender) {
		s.MprSelectors[sender] = now.Add(validity)
		if !exists {
			s.Ansn++
			r.Log(MprSelectorAdded, "selected as mpr", "neigh", sender, "ansn", s.Ansn)
			return true
		}
		return false
	}
	if exists {
		delete(s.MprSelectors, sender)
		s.Ansn++
		r.Log(MprSelectorRemoved, "no longer selected as mpr", "neigh", sender, "ansn", s.Ansn)
		return true
	}
	return false
}

// SymmetricNeighbours returns the sorted addresses of every neighbour with status SYM
func SymmetricNeighbours(s *state.RouterState) []netip.Addr {
	out := make([]netip.Addr, 0, len(s.Neighbours))
	for _, addr := range sortedAddrs(s.Neighbours) {
		if s.Neighbours[addr].Status == state.Sym {
			out = append(out, addr)
		}
	}
	return out
}

// StrictTwoHop returns the two-hop addresses reachable through a symmetric neighbour, that are neither ourselves nor a symmetric neighbour.
func StrictTwoHop(s *state.RouterState) state.AddrSet {
	out := make(state.AddrSet)
	for key := range s.TwoHop {
		if key.TwoHop == s.Id || !s.IsSymmetricNeighbour(key.Neighbour) || s.IsSymmetricNeighbour(key.TwoHop) {
			continue
		}
		out[key.TwoHop] = struct{}{}
	}
	return out
}

// CoverageMap maps each symmetric neighbour to the strict two-hop neighbours it reaches
func CoverageMap(s *state.RouterState) map[netip.Addr]state.AddrSet {
	strict := StrictTwoHop(s)
	out := make(map[netip.Addr]state.AddrSet)
	for key := range s.TwoHop {
		if _, ok := strict[key.TwoHop]; !ok || !s.IsSymmetricNeighbour(key.Neighbour) {
			continue
		}
		cov, ok := out[key.Neighbour]
		if !ok {
			cov = make(state.AddrSet)
			out[key.Neighbour] = cov
		}
		cov[key.TwoHop] = struct{}{}
	}
	return out
}

// RecalculateMpr reruns MPR selection, replacing the MPR set only if the result differs
func RecalculateMpr(s *state.RouterState, r Router) bool {
	candidates := make(map[netip.Addr]uint8)
	for _, addr := range SymmetricNeighbours(s) {
		candidates[addr] = s.Neighbours[addr].Willingness
	}
	mprs := SelectMpr(candidates, CoverageMap(s))
	if maps.Equal(mprs, s.Mprs) {
		return false
	}
	s.Mprs = mprs
	r.Log(MprChanged, "mpr set changed", "mprs", sortedAddrs(mprs))
	return true
}

// NeighbourCleanup re-derives every neighbour status from its link, and expires the two-hop and MPR selector sets.
func NeighbourCleanup(s *state.RouterState, r Router, now time.Time) bool {
	changed := false

	// 8.5.  Neighborhood and 2-hop Neighborhood Changes
	//   A change in the neighborhood is detected when:
	//     - The L_SYM_time field of a link tuple expires. This is
	//       considered as a neighbor loss if the link described by the
	//       expired tuple was the last link with a neighbor node
	//     - A new link tuple is inserted in the Link Set with a non
	//       expired L_SYM_time or a tuple with expired L_SYM_time is
	//       modified so that L_SYM_time becomes non-expired.
	for addr, n := range s.Neighbours {
		link, ok := s.Links[addr]
		if !ok {
			delete(s.Neighbours, addr)
			r.Log(NeighbourRemoved, "neighbour removed", "neigh", addr)
			changed = true
			continue
		}
		if UpdateNeighbourStatus(s, r, addr, n.Willingness, link.IsSymmetric(now)) {
			changed = true
		}
	}

	//   The following processing occurs when changes in the neighborhood or
	//   the 2-hop neighborhood are detected:
	//     - In case of neighbor loss, all 2-hop tuples with
	//       N_neighbor_main_addr == Main Address of the neighbor MUST be
	//       deleted.
	//     - In case of neighbor loss, all MPR selector tuples with
	//       MS_main_addr == Main Address of the neighbor MUST be deleted
	for key, th := range s.TwoHop {
		if th.Expiry.Before(now) || !s.IsSymmetricNeighbour(key.Neighbour) {
			delete(s.TwoHop, key)
			r.Log(TwoHopRemoved, "two hop neighbour expired", "neigh", key.Neighbour, "two_hop", key.TwoHop)
			changed = true
		}
	}
	for addr, expiry := range s.MprSelectors {
		if expiry.Before(now) || !s.IsSymmetricNeighbour(addr) {
			delete(s.MprSelectors, addr)
			s.Ansn++
			r.Log(MprSelectorRemoved, "mpr selector expired", "neigh", addr, "ansn", s.Ansn)
		}
	}

	//     - The MPR set MUST be re-calculated when a neighbor appearance
	//       or loss is detected, or when a change in the 2-hop neighborhood
	//       is detected.
	if changed {
		RecalculateMpr(s, r)
	}
	return changed
}
