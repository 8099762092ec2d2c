package state

import (
	"fmt"
	"net/netip"
	"time"
)

type AddrSet = map[netip.Addr]struct{}

// LinkTuple records what we know about the link to one neighbour interface.
// Symmetry is derived from the timers at query time, never stored.
type LinkTuple struct {
	Neighbour  netip.Addr
	AsymExpiry time.Time
	SymExpiry  time.Time
	// Expiry is max(SymExpiry, AsymExpiry) + NEIGHB_HOLD_TIME
	Expiry time.Time
}

func (l *LinkTuple) TotalExpiry() time.Time {
	return l.Expiry
}

func (l *LinkTuple) IsSymmetric(now time.Time) bool {
	return now.Before(l.SymExpiry)
}

func (l *LinkTuple) IsAsymmetric(now time.Time) bool {
	return now.Before(l.AsymExpiry) && !l.IsSymmetric(now)
}

// IsLost is true while the link is neither heard nor confirmed, but still held so that it can be announced as lost.
func (l *LinkTuple) IsLost(now time.Time) bool {
	return !now.Before(l.AsymExpiry) && !l.IsSymmetric(now) && !now.After(l.Expiry)
}

func (l *LinkTuple) Status(now time.Time) string {
	switch {
	case l.IsSymmetric(now):
		return "SYM"
	case l.IsAsymmetric(now):
		return "ASYM"
	case l.IsLost(now):
		return "LOST"
	default:
		return "EXPIRED"
	}
}

type NeighbourStatus uint8

const (
	NotSym NeighbourStatus = 0
	Sym    NeighbourStatus = 1
)

func (s NeighbourStatus) String() string {
	if s == Sym {
		return "SYM"
	}
	return "NOT_SYM"
}

type NeighbourTuple struct {
	Addr        netip.Addr
	Status      NeighbourStatus
	Willingness uint8
}

type TwoHopKey struct {
	Neighbour netip.Addr
	TwoHop    netip.Addr
}

type TwoHopTuple struct {
	TwoHopKey
	Expiry time.Time
}

// TopologyKey identifies a link advertised by Last (the TC originator) towards Dest (one of its MPR selectors).
type TopologyKey struct {
	Dest netip.Addr
	Last netip.Addr
}

type TopologyTuple struct {
	TopologyKey
	Seqno  uint16
	Expiry time.Time
}

type AssociationKey struct {
	Gateway netip.Addr
	Network netip.Prefix
}

type AssociationTuple struct {
	AssociationKey
	Expiry time.Time
}

// RouterState holds all protocol tables of a node. It is owned by the main loop.
type RouterState struct {
	Id             netip.Addr
	Willingness    uint8
	NeighbHoldTime time.Duration
	Links          map[netip.Addr]*LinkTuple
	Neighbours     map[netip.Addr]*NeighbourTuple
	TwoHop         map[TwoHopKey]*TwoHopTuple
	// Mprs is replaced wholesale on every change, never mutated in place
	Mprs         AddrSet
	MprSelectors map[netip.Addr]time.Time
	Topology     map[TopologyKey]*TopologyTuple
	Associations map[AssociationKey]*AssociationTuple
	Duplicates   *DuplicateSet
	Routes       *RoutingTable
	// Networks are announced by this node through HNA
	Networks []netip.Prefix
	// Ansn is bumped every time the MPR selector set changes
	Ansn     uint16
	MsgSeqno uint16
	PktSeqno uint16
}

func NewRouterState(id netip.Addr, willingness uint8, neighbHold time.Duration) *RouterState {
	return &RouterState{
		Id:             id,
		Willingness:    willingness,
		NeighbHoldTime: neighbHold,
		Links:          make(map[netip.Addr]*LinkTuple),
		Neighbours:     make(map[netip.Addr]*NeighbourTuple),
		TwoHop:         make(map[TwoHopKey]*TwoHopTuple),
		Mprs:           make(AddrSet),
		MprSelectors:   make(map[netip.Addr]time.Time),
		Topology:       make(map[TopologyKey]*TopologyTuple),
		Associations:   make(map[AssociationKey]*AssociationTuple),
		Duplicates:     NewDuplicateSet(DupHoldTime),
		Routes:         NewRoutingTable(),
	}
}

// NextMsgSeqno returns the sequence number for the next originated message
func (s *RouterState) NextMsgSeqno() uint16 {
	s.MsgSeqno++
	return s.MsgSeqno
}

func (s *RouterState) NextPktSeqno() uint16 {
	s.PktSeqno++
	return s.PktSeqno
}

func (s *RouterState) IsSymmetricNeighbour(addr netip.Addr) bool {
	n, ok := s.Neighbours[addr]
	return ok && n.Status == Sym
}

func (l LinkTuple) String() string {
	return fmt.Sprintf("(link: %s, asym: %s, sym: %s, expiry: %s)", l.Neighbour, l.AsymExpiry.Format(time.StampMilli), l.SymExpiry.Format(time.StampMilli), l.Expiry.Format(time.StampMilli))
}

func (n NeighbourTuple) String() string {
	return fmt.Sprintf("(neigh: %s, status: %s, will: %d)", n.Addr, n.Status, n.Willingness)
}

func (t TwoHopTuple) String() string {
	return fmt.Sprintf("(two hop: %s via %s)", t.TwoHop, t.Neighbour)
}

func (t TopologyTuple) String() string {
	return fmt.Sprintf("(dest: %s, last: %s, ansn: %d)", t.Dest, t.Last, t.Seqno)
}

func (a AssociationTuple) String() string {
	return fmt.Sprintf("(network: %s, gw: %s)", a.Network, a.Gateway)
}
