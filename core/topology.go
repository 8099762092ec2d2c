package core

import (
	"net/netip"
	"time"

	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
)

func storedAnsn(s *state.RouterState, originator netip.Addr) (uint16, bool) {
	for key, t := range s.Topology {
		if key.Last == originator {
			return t.Seqno, true
		}
	}
	return 0, false
}

// ProcessTc replaces the advertised neighbour set of originator with the content of tc, unless tc is older than what we hold.
func ProcessTc(s *state.RouterState, r Router, originator netip.Addr, tc *protocol.Tc, validity time.Duration, now time.Time) bool {
	// 9.5.  TC Message Processing
	//   2    If there exist some tuple in the topology set where:
	//             T_last_addr == originator address AND
	//             T_seq       >  ANSN,
	//        then further processing of this TC message MUST NOT be
	//        performed and the message MUST be silently discarded (case:
	//        message received out of order).
	ansn, ok := storedAnsn(s, originator)
	if ok && SeqnoLt(tc.Ansn, ansn) {
		r.Log(StaleTcDropped, "dropped out of order tc", "originator", originator, "ansn", tc.Ansn, "stored", ansn)
		return false
	}

	//   3    All tuples in the topology set where:
	//             T_last_addr == originator address AND
	//             T_seq       <  ANSN
	//        MUST be removed from the topology set.
	changed := false
	if ok && ansn != tc.Ansn {
		for key := range s.Topology {
			if key.Last == originator {
				delete(s.Topology, key)
			}
		}
		changed = true
	}

	//   4    For each of the advertised neighbor main address received in
	//        the TC message:
	//        4.1  If there exist some tuple in the topology set where:
	//                  T_dest_addr == advertised neighbor main address, AND
	//                  T_last_addr == originator address,
	//             then the holding time of that tuple MUST be set to:
	//                  T_time      =  current time + validity time.
	//        4.2  Otherwise, a new tuple MUST be recorded in the topology
	//             set
	for _, dest := range tc.Neighbours {
		key := state.TopologyKey{Dest: dest, Last: originator}
		t, exists := s.Topology[key]
		if !exists {
			t = &state.TopologyTuple{TopologyKey: key}
			s.Topology[key] = t
			changed = true
		}
		t.Seqno = tc.Ansn
		t.Expiry = now.Add(validity)
	}
	if changed {
		r.Log(TopologyUpdated, "topology updated", "originator", originator, "ansn", tc.Ansn, "neighbours", len(tc.Neighbours))
	}
	return changed
}

func TopologyCleanup(s *state.RouterState, r Router, now time.Time) bool {
	changed := false
	for key, t := range s.Topology {
		if t.Expiry.Before(now) {
			delete(s.Topology, key)
			r.Log(TopologyRemoved, "topology tuple expired", "dest", key.Dest, "last", key.Last)
			changed = true
		}
	}
	return changed
}
