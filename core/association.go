package core

import (
	"net/netip"
	"time"

	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
)

// ProcessHna records the networks gateway announces as reachable through itself.
func ProcessHna(s *state.RouterState, r Router, gateway netip.Addr, hna *protocol.Hna, validity time.Duration, now time.Time) bool {
	// 12.5.  HNA Message Processing
	//   for each (network address, netmask) pair in the message:
	//   1    if an entry in the association set already exists, where:
	//             A_gateway_addr == originator address
	//             A_network_addr == network address
	//             A_netmask      == netmask
	//        then the holding time for that tuple MUST be set to:
	//             A_time         =  current time + validity time
	//   2    otherwise, a new tuple MUST be recorded
	changed := false
	for _, network := range hna.Networks {
		key := state.AssociationKey{Gateway: gateway, Network: network.Masked()}
		a, ok := s.Associations[key]
		if !ok {
			a = &state.AssociationTuple{AssociationKey: key}
			s.Associations[key] = a
			r.Log(AssociationUpdated, "new association", "gw", gateway, "network", key.Network)
			changed = true
		}
		a.Expiry = now.Add(validity)
	}
	return changed
}

func AssociationCleanup(s *state.RouterState, r Router, now time.Time) bool {
	changed := false
	for key, a := range s.Associations {
		if a.Expiry.Before(now) {
			delete(s.Associations, key)
			r.Log(AssociationRemoved, "association expired", "gw", key.Gateway, "network", key.Network)
			changed = true
		}
	}
	return changed
}
