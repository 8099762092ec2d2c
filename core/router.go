package core

import (
	"fmt"
	"time"

	"github.com/encodeous/olsr/perf"
	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
)

// OlsrRouter owns the protocol state and the outbound message queue
type OlsrRouter struct {
	*state.State
	// Pending holds messages queued during the current dispatch, they are coalesced into packets by Flush
	Pending []protocol.Message
}

func (r *OlsrRouter) SendMessage(msg protocol.Message) {
	r.Pending = append(r.Pending, msg)
}

func (r *OlsrRouter) Log(event RouterEvent, desc string, args ...any) {
	r.Env.Log.Debug(fmt.Sprintf("%s %s", event.String(), desc), args...)
}

// Flush packs every pending message into as few packets as fit under SafeMTU, and broadcasts them.
func (r *OlsrRouter) Flush() error {
	if len(r.Pending) == 0 {
		return nil
	}
	n := Get[*OlsrNode](r.State)
	for len(r.Pending) > 0 {
		pkt := protocol.Packet{}
		size := protocol.PacketHeaderSize
		for len(r.Pending) > 0 {
			msg := r.Pending[0]
			// a single oversized message still gets a packet of its own
			if len(pkt.Messages) != 0 && size+msg.Len() > state.SafeMTU {
				break
			}
			pkt.Messages = append(pkt.Messages, msg)
			size += msg.Len()
			r.Pending = r.Pending[1:]
		}
		pkt.Seqno = r.NextPktSeqno()
		b, err := pkt.MarshalBinary()
		if err != nil {
			r.Env.Log.Warn("failed to encode packet", "error", err)
			continue
		}
		perf.SendBatchSize.Add(float64(len(pkt.Messages)))
		n.Broadcast(r.Env, b)
	}
	r.Pending = nil
	return nil
}

func (r *OlsrRouter) Init(s *state.State) error {
	s.Log.Debug("init router")
	r.State = s
	s.RouterState = state.NewRouterState(s.Address, s.GetWillingness(), s.LocalCfg.NeighbHoldTime())
	for _, prefix := range s.Prefixes {
		s.RouterState.Networks = append(s.RouterState.Networks, prefix.Masked())
	}

	s.Log.Debug("schedule router tasks")

	// 18.3.  Emission Intervals
	//   MAXJITTER     = HELLO_INTERVAL / 4
	jitter := s.MaxJitter()
	s.Env.RepeatJitterTask(func(s *state.State) error {
		GenerateHello(s.RouterState, r, s.HelloInterval, time.Now())
		return r.Flush()
	}, s.HelloInterval, jitter)
	s.Env.RepeatJitterTask(func(s *state.State) error {
		GenerateTc(s.RouterState, r, s.TopHoldTime())
		return r.Flush()
	}, s.TcInterval, jitter)
	if len(s.RouterState.Networks) != 0 {
		s.Env.RepeatJitterTask(func(s *state.State) error {
			GenerateHna(s.RouterState, r, s.HnaHoldTime())
			return r.Flush()
		}, s.TcInterval, jitter)
	}
	s.Env.RepeatTask(func(s *state.State) error {
		RunGC(s.RouterState, r, time.Now())
		return nil
	}, state.GcDelay)
	return nil
}

func (r *OlsrRouter) Cleanup(s *state.State) error {
	r.State = nil
	r.Pending = nil
	return nil
}

