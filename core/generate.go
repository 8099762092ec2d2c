package core

import (
	"time"

	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
)

func originate(s *state.RouterState, r Router, typ protocol.MessageType, vtime time.Duration, ttl uint8, body []byte) {
	r.SendMessage(protocol.Message{
		MessageHeader: protocol.MessageHeader{
			Type:       typ,
			Vtime:      protocol.EncodeVtime(vtime),
			Originator: s.Id,
			TTL:        ttl,
			HopCount:   0,
			Seqno:      s.NextMsgSeqno(),
		},
		Body: body,
	})
}

// GenerateHello queues our HELLO, announcing every known link with its current state.
func GenerateHello(s *state.RouterState, r Router, htime time.Duration, now time.Time) {
	hello := &protocol.Hello{
		Htime:       htime,
		Willingness: s.Willingness,
		Groups:      HelloGroups(s, now),
	}
	body, err := hello.MarshalBinary()
	if err != nil {
		r.Log(EncodeFailure, "failed to encode hello", "error", err)
		return
	}
	// HELLO messages are never forwarded
	originate(s, r, protocol.HelloMessage, s.NeighbHoldTime, 1, body)
}

// GenerateTc queues a TC advertising our MPR selectors. Nothing is sent while no neighbour relies on us as a relay.
func GenerateTc(s *state.RouterState, r Router, topHold time.Duration) bool {
	if len(s.MprSelectors) == 0 {
		return false
	}
	tc := &protocol.Tc{
		Ansn:       s.Ansn,
		Neighbours: sortedAddrs(s.MprSelectors),
	}
	body, err := tc.MarshalBinary()
	if err != nil {
		r.Log(EncodeFailure, "failed to encode tc", "error", err)
		return false
	}
	originate(s, r, protocol.TcMessage, topHold, protocol.MaxTTL, body)
	return true
}

// GenerateHna queues an HNA announcing the networks attached to this node.
func GenerateHna(s *state.RouterState, r Router, hnaHold time.Duration) bool {
	if len(s.Networks) == 0 {
		return false
	}
	hna := &protocol.Hna{
		Networks: s.Networks,
	}
	body, err := hna.MarshalBinary()
	if err != nil {
		r.Log(EncodeFailure, "failed to encode hna", "error", err)
		return false
	}
	originate(s, r, protocol.HnaMessage, hnaHold, protocol.MaxTTL, body)
	return true
}
