package core

import (
	"net/netip"
	"slices"
	"time"

	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
)

// ProcessHelloLinks updates the link tuple towards sender. It returns true if the symmetry of the link changed.
func ProcessHelloLinks(s *state.RouterState, r Router, sender netip.Addr, hello *protocol.Hello, now time.Time) bool {
	validity := hello.Htime * time.Duration(state.HoldMultiplier)

	// 7.1.1.  HELLO Message Processing
	//   1    Upon receiving a HELLO message, if there exists no link tuple
	//        with
	//             L_neighbor_iface_addr == Source Address
	//        a new tuple is created with
	//             L_neighbor_iface_addr = Source Address
	//             L_local_iface_addr    = Address of the interface
	//                                     which received the
	//                                     message
	//             L_SYM_time            = current time - 1 (expired)
	//             L_time                = current time + validity time
	link, ok := s.Links[sender]
	if !ok {
		link = &state.LinkTuple{
			Neighbour: sender,
			SymExpiry: now.Add(-state.ExpiredOffset),
		}
		s.Links[sender] = link
		r.Log(LinkAdded, "new link", "neigh", sender)
	}
	wasSym := link.IsSymmetric(now)

	//   2    The tuple (existing or new) with:
	//             L_neighbor_iface_addr == Source Address
	//        is then modified as follows:
	//        2.1  L_ASYM_time = current time + validity time;
	link.AsymExpiry = now.Add(validity)

	//        2.2  if the interface on which the HELLO message is received is
	//             in the list of the addresses, listed in the Link Message,
	//             then the tuple is modified as follows:
	//             if Link Type is equal to LOST_LINK then
	//                  L_SYM_time = current time - 1 (i.e., expired)
	//             else if Link Type is equal to SYM_LINK or ASYM_LINK then
	//                  L_SYM_time = current time + validity time,
	for _, group := range hello.Groups {
		if !slices.Contains(group.Addresses, s.Id) {
			continue
		}
		switch group.Code.LinkType() {
		case protocol.LostLink:
			link.SymExpiry = now.Add(-state.ExpiredOffset)
		case protocol.AsymLink, protocol.SymLink:
			link.SymExpiry = now.Add(validity)
		}
	}

	// the link is held for one more NEIGHB_HOLD_TIME after it stops being heard, so that it can be announced as lost
	latest := link.AsymExpiry
	if link.SymExpiry.After(latest) {
		latest = link.SymExpiry
	}
	link.Expiry = latest.Add(s.NeighbHoldTime)

	isSym := link.IsSymmetric(now)
	if isSym != wasSym {
		if isSym {
			r.Log(LinkSymmetric, "link became symmetric", "neigh", sender)
		} else {
			r.Log(LinkAsymmetric, "link became asymmetric", "neigh", sender)
		}
		return true
	}
	return false
}

// LinkCleanup removes every link tuple past its total expiry. It returns true if any link was removed.
func LinkCleanup(s *state.RouterState, r Router, now time.Time) bool {
	changed := false
	for addr, link := range s.Links {
		if link.Expiry.Before(now) {
			delete(s.Links, addr)
			r.Log(LinkRemoved, "link expired", "neigh", addr)
			changed = true
		}
	}
	return changed
}

// HelloGroups builds the neighbour groups announced in our next HELLO.
// Groups are emitted in a fixed order with sorted addresses, empty groups are omitted.
func HelloGroups(s *state.RouterState, now time.Time) []protocol.NeighbourGroup {
	var sym, mpr, asym, lost []netip.Addr
	for _, addr := range sortedAddrs(s.Links) {
		link := s.Links[addr]
		switch {
		case link.IsSymmetric(now):
			if _, ok := s.Mprs[addr]; ok {
				mpr = append(mpr, addr)
			} else {
				sym = append(sym, addr)
			}
		case link.IsAsymmetric(now):
			asym = append(asym, addr)
		case link.IsLost(now):
			lost = append(lost, addr)
		}
	}
	groups := make([]protocol.NeighbourGroup, 0, 4)
	add := func(lt protocol.LinkType, nt protocol.NeighbourType, addrs []netip.Addr) {
		if len(addrs) == 0 {
			return
		}
		groups = append(groups, protocol.NeighbourGroup{
			Code:      protocol.NewLinkCode(lt, nt),
			Addresses: addrs,
		})
	}
	add(protocol.SymLink, protocol.SymNeigh, sym)
	add(protocol.SymLink, protocol.MprNeigh, mpr)
	add(protocol.AsymLink, protocol.NotNeigh, asym)
	add(protocol.LostLink, protocol.NotNeigh, lost)
	return groups
}
