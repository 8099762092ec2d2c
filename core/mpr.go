package core

import (
	"net/netip"
	"slices"

	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
)

// SelectMpr computes a minimal set of candidates covering every two-hop node reachable through a willing candidate.
// The result only depends on its inputs. Two-hop nodes no willing candidate reaches are left uncovered.
func SelectMpr(candidates map[netip.Addr]uint8, coverage map[netip.Addr]state.AddrSet) state.AddrSet {
	// 8.3.1.  MPR Computation
	//   The following specifies a proposed heuristic for selection of MPRs.
	//   ...
	//        N:   N is the subset of neighbors of the node, which are
	//             neighbor of the interface I, excluding the neighbors
	//             with willingness WILL_NEVER.
	willing := make([]netip.Addr, 0, len(candidates))
	for _, addr := range sortedAddrs(candidates) {
		if candidates[addr] != protocol.WillNever {
			willing = append(willing, addr)
		}
	}

	coverers := make(map[netip.Addr][]netip.Addr)
	for _, c := range willing {
		for th := range coverage[c] {
			coverers[th] = append(coverers[th], c)
		}
	}

	mprs := make(state.AddrSet)
	uncovered := make(state.AddrSet, len(coverers))
	for th := range coverers {
		uncovered[th] = struct{}{}
	}
	selectMpr := func(c netip.Addr) {
		mprs[c] = struct{}{}
		for th := range coverage[c] {
			delete(uncovered, th)
		}
	}

	//   3    Add to the MPR set those nodes in N, which are the *only*
	//        nodes to provide reachability to a node in N2.
	mandatory := make(state.AddrSet)
	for _, cs := range coverers {
		if len(cs) == 1 {
			mandatory[cs[0]] = struct{}{}
		}
	}
	for _, c := range willing {
		if _, ok := mandatory[c]; ok {
			selectMpr(c)
		}
	}

	// greedy cover of the remainder: most uncovered nodes first, then highest willingness, then lowest address
	for len(uncovered) > 0 {
		var best netip.Addr
		bestCount := 0
		for _, c := range willing {
			if _, ok := mprs[c]; ok {
				continue
			}
			count := 0
			for th := range coverage[c] {
				if _, ok := uncovered[th]; ok {
					count++
				}
			}
			if count == 0 {
				continue
			}
			if count > bestCount || (count == bestCount && candidates[c] > candidates[best]) {
				best = c
				bestCount = count
			}
		}
		if bestCount == 0 {
			break
		}
		selectMpr(best)
	}

	//   5    A node's MPR set is generated from the union of the MPR sets
	//        for each interface.  As an optimization, process each node, y,
	//        in the MPR set in increasing order of N_willingness.  If all
	//        nodes in N2 are still covered by at least one node in the MPR
	//        set excluding node y, and if N_willingness of node y is
	//        smaller than WILL_ALWAYS, then node y MAY be removed from the
	//        MPR set.
	covered := make(map[netip.Addr]int)
	for c := range mprs {
		for th := range coverage[c] {
			covered[th]++
		}
	}
	order := make([]netip.Addr, 0, len(mprs))
	for c := range mprs {
		if _, ok := mandatory[c]; !ok {
			order = append(order, c)
		}
	}
	slices.SortFunc(order, func(a, b netip.Addr) int {
		if candidates[a] != candidates[b] {
			return int(candidates[a]) - int(candidates[b])
		}
		return b.Compare(a)
	})
	for _, c := range order {
		redundant := true
		for th := range coverage[c] {
			if covered[th] < 2 {
				redundant = false
				break
			}
		}
		if !redundant {
			continue
		}
		delete(mprs, c)
		for th := range coverage[c] {
			covered[th]--
		}
	}
	return mprs
}
