package core

import (
	"net/netip"
	"time"

	"github.com/encodeous/olsr/perf"
	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
)

// ShouldForward implements the default forwarding condition. Only messages received from one of our MPR selectors are relayed.
func ShouldForward(s *state.RouterState, sender netip.Addr, hdr protocol.MessageHeader, now time.Time) bool {
	if hdr.TTL <= 1 || hdr.Originator == s.Id {
		return false
	}

	// 3.4.1.  Default Forwarding Algorithm
	//   2    If there exists a tuple in the duplicate set where:
	//             D_addr    == Originator Address, AND
	//             D_seq_num == Message Sequence Number
	//        Then the message will be further considered for forwarding if
	//        and only if:
	//             D_retransmitted is false
	if s.Duplicates.IsRetransmitted(state.MessageId{Originator: hdr.Originator, Seqno: hdr.Seqno}) {
		return false
	}

	//   4    If the sender interface address is an interface address of a
	//        MPR selector of this node and if the time to live of the
	//        message is greater than '1', the message MUST be retransmitted
	expiry, ok := s.MprSelectors[sender]
	return ok && now.Before(expiry)
}

// ForwardMessage relays msg with an updated TTL and hop count, and marks it retransmitted.
func ForwardMessage(s *state.RouterState, r Router, msg protocol.Message, now time.Time) {
	s.Duplicates.MarkRetransmitted(state.MessageId{Originator: msg.Originator, Seqno: msg.Seqno}, now)

	//   5    If the message will be retransmitted then the TTL of the
	//        message is reduced by one, and the hop-count of the message is
	//        increased by one
	fwd := msg
	fwd.TTL--
	fwd.HopCount++
	r.SendMessage(fwd)
	perf.ForwardedPerSecond.Add(1)
	r.Log(MessageForwarded, "forwarded message", "type", msg.Type, "originator", msg.Originator, "seqno", msg.Seqno, "ttl", fwd.TTL)
}
