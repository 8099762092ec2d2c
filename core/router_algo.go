package core

// This file makes references to RFC 3626:
// https://datatracker.ietf.org/doc/html/rfc3626

import (
	"net/netip"
	"time"

	"github.com/encodeous/olsr/perf"
	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
)

type RouterEvent int

// trace events

const (
	LinkAdded RouterEvent = iota
	LinkSymmetric
	LinkAsymmetric
	LinkRemoved
	NeighbourAdded
	NeighbourRemoved
	TwoHopAdded
	TwoHopRemoved
	MprChanged
	MprSelectorAdded
	MprSelectorRemoved
	TopologyUpdated
	TopologyRemoved
	AssociationUpdated
	AssociationRemoved
	RoutesRecomputed
	MessageForwarded
)

// warn events

const (
	MalformedPacket RouterEvent = iota + 1000
	MalformedMessage
	StaleTcDropped
	NonSymmetricSender
	UnknownMessage
	EncodeFailure
)

func (e RouterEvent) String() string {
	switch e {
	case LinkAdded:
		return "LINK_ADDED"
	case LinkSymmetric:
		return "LINK_SYMMETRIC"
	case LinkAsymmetric:
		return "LINK_ASYMMETRIC"
	case LinkRemoved:
		return "LINK_REMOVED"
	case NeighbourAdded:
		return "NEIGHBOUR_ADDED"
	case NeighbourRemoved:
		return "NEIGHBOUR_REMOVED"
	case TwoHopAdded:
		return "TWO_HOP_ADDED"
	case TwoHopRemoved:
		return "TWO_HOP_REMOVED"
	case MprChanged:
		return "MPR_CHANGED"
	case MprSelectorAdded:
		return "MPR_SELECTOR_ADDED"
	case MprSelectorRemoved:
		return "MPR_SELECTOR_REMOVED"
	case TopologyUpdated:
		return "TOPOLOGY_UPDATED"
	case TopologyRemoved:
		return "TOPOLOGY_REMOVED"
	case AssociationUpdated:
		return "ASSOCIATION_UPDATED"
	case AssociationRemoved:
		return "ASSOCIATION_REMOVED"
	case RoutesRecomputed:
		return "ROUTES_RECOMPUTED"
	case MessageForwarded:
		return "MESSAGE_FORWARDED"
	case MalformedPacket:
		return "MALFORMED_PACKET"
	case MalformedMessage:
		return "MALFORMED_MESSAGE"
	case StaleTcDropped:
		return "STALE_TC_DROPPED"
	case NonSymmetricSender:
		return "NON_SYMMETRIC_SENDER"
	case UnknownMessage:
		return "UNKNOWN_MESSAGE"
	case EncodeFailure:
		return "ENCODE_FAILURE"
	default:
		return "UNKNOWN_EVENT"
	}
}

// Router is an interface that defines the underlying router operations
type Router interface {
	// SendMessage queues a message to be broadcast with the next outbound packet
	SendMessage(msg protocol.Message)
	Log(event RouterEvent, desc string, args ...any)
}

// HandlePacket processes every message of a received datagram, and recomputes the routing table once if any of them changed the node state.
// A malformed datagram is discarded as a whole, the returned error is only informational.
func HandlePacket(s *state.RouterState, r Router, sender netip.Addr, data []byte, now time.Time) error {
	pkt, err := protocol.ParsePacket(data)
	if err != nil {
		perf.MalformedPerSecond.Add(1)
		r.Log(MalformedPacket, "dropped malformed packet", "from", sender, "error", err)
		return err
	}
	changed := false
	for _, msg := range pkt.Messages {
		changed = HandleMessage(s, r, sender, msg, now) || changed
	}
	if changed {
		ComputeRoutes(s, r)
	}
	return nil
}

// HandleMessage runs a single message through duplicate detection, processing and the forwarding decision.
// It returns true if the message changed any table that the routing table is derived from.
func HandleMessage(s *state.RouterState, r Router, sender netip.Addr, msg protocol.Message, now time.Time) bool {
	// 3.4.  Packet Processing and Message Flooding
	//   2    If the time to live of the message is less than or equal to
	//        '0' (zero), or if this message was sent by the receiving node
	//        (i.e., the Originator Address of the message is the main
	//        address of the receiving node): the message MUST silently be
	//        dropped.
	if msg.TTL == 0 || msg.Originator == s.Id {
		return false
	}

	//   3    Processing condition:
	//        3.1  if there exists a tuple in the duplicate set, where:
	//                  D_addr    == Originator Address, AND
	//                  D_seq_num == Message Sequence Number
	//             then the message has already been completely processed
	//             and MUST not be processed again.
	id := state.MessageId{Originator: msg.Originator, Seqno: msg.Seqno}
	changed := false
	if !s.Duplicates.IsDuplicate(id) {
		s.Duplicates.Record(id, now)
		changed = processMessage(s, r, sender, msg, now)
	}

	//   4    Forwarding condition:
	if ShouldForward(s, sender, msg.MessageHeader, now) {
		ForwardMessage(s, r, msg, now)
	}
	return changed
}

func processMessage(s *state.RouterState, r Router, sender netip.Addr, msg protocol.Message, now time.Time) bool {
	switch msg.Type {
	case protocol.HelloMessage:
		hello, err := protocol.ParseHello(msg.Body)
		if err != nil {
			perf.MalformedPerSecond.Add(1)
			r.Log(MalformedMessage, "dropped malformed hello", "from", sender, "error", err)
			return false
		}
		return ProcessHello(s, r, sender, hello, now)
	case protocol.TcMessage:
		// 9.5.  TC Message Processing
		//   1    If the sender interface (NB: not originator) of this message
		//        is not in the symmetric 1-hop neighborhood of this node, the
		//        message MUST be discarded.
		if !s.IsSymmetricNeighbour(sender) {
			r.Log(NonSymmetricSender, "ignored tc from non-symmetric neighbour", "from", sender, "originator", msg.Originator)
			return false
		}
		tc, err := protocol.ParseTc(msg.Body)
		if err != nil {
			perf.MalformedPerSecond.Add(1)
			r.Log(MalformedMessage, "dropped malformed tc", "from", sender, "error", err)
			return false
		}
		return ProcessTc(s, r, msg.Originator, tc, protocol.DecodeVtime(msg.Vtime), now)
	case protocol.HnaMessage:
		if !s.IsSymmetricNeighbour(sender) {
			r.Log(NonSymmetricSender, "ignored hna from non-symmetric neighbour", "from", sender, "originator", msg.Originator)
			return false
		}
		hna, err := protocol.ParseHna(msg.Body)
		if err != nil {
			perf.MalformedPerSecond.Add(1)
			r.Log(MalformedMessage, "dropped malformed hna", "from", sender, "error", err)
			return false
		}
		return ProcessHna(s, r, msg.Originator, hna, protocol.DecodeVtime(msg.Vtime), now)
	default:
		// unknown types are still subject to the default forwarding algorithm
		r.Log(UnknownMessage, "not processing unknown message type", "type", msg.Type, "originator", msg.Originator)
		return false
	}
}

// ProcessHello applies a HELLO to the link, neighbour, two-hop and MPR selector sets, recalculating the MPR set when needed.
func ProcessHello(s *state.RouterState, r Router, sender netip.Addr, hello *protocol.Hello, now time.Time) bool {
	changed := ProcessHelloLinks(s, r, sender, hello, now)
	link := s.Links[sender]
	changed = UpdateNeighbourStatus(s, r, sender, hello.Willingness, link.IsSymmetric(now)) || changed
	changed = Process2Hop(s, r, sender, hello, now) || changed
	ProcessMprSelectors(s, r, sender, hello, now)
	if changed {
		RecalculateMpr(s, r)
	}
	return changed
}

// RunGC expires every table, and recomputes the MPR set and routing table if anything was removed.
func RunGC(s *state.RouterState, r Router, now time.Time) {
	changed := LinkCleanup(s, r, now)
	changed = NeighbourCleanup(s, r, now) || changed
	changed = TopologyCleanup(s, r, now) || changed
	changed = AssociationCleanup(s, r, now) || changed
	s.Duplicates.Cleanup()
	if changed {
		ComputeRoutes(s, r)
	}
}
