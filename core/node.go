package core

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/encodeous/olsr/perf"
	"github.com/encodeous/olsr/state"
)

// OlsrNode connects the router to the datagram transport
type OlsrNode struct {
	Transport state.Transport
	broadcast netip.AddrPort
	wg        sync.WaitGroup
}

// Broadcast sends one encoded packet to the broadcast address. Send failures are logged, never fatal.
func (n *OlsrNode) Broadcast(e *state.Env, pkt []byte) {
	err := n.Transport.Send(pkt, n.broadcast)
	if err != nil {
		if e.Context.Err() == nil {
			e.Log.Warn("failed to send packet", "to", n.broadcast, "error", err)
		}
		return
	}
	perf.SentPacketPerSecond.Add(1)
	perf.SentBytesPerSecond.Add(float64(len(pkt)))
}

func (n *OlsrNode) receive(e *state.Env) {
	defer n.wg.Done()
	buf := make([]byte, 65535)
	for {
		l, from, err := n.Transport.Receive(buf)
		if err != nil {
			if e.Context.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			e.Cancel(fmt.Errorf("receive: %w", err))
			return
		}
		perf.RecvPacketPerSecond.Add(1)
		perf.RecvBytesPerSecond.Add(float64(l))
		sender := from.Addr().Unmap()
		if sender == e.Address {
			// our own broadcast
			continue
		}
		// forwarded messages alias this buffer until they are flushed
		data := slices.Clone(buf[:l])
		e.Dispatch(func(s *state.State) error {
			r := Get[*OlsrRouter](s)
			err := HandlePacket(s.RouterState, r, sender, data, time.Now())
			if err != nil {
				s.Log.Debug("dropped datagram", "from", from, "error", err)
			}
			return r.Flush()
		})
	}
}

func (n *OlsrNode) Init(s *state.State) error {
	s.Log.Debug("init node")
	n.broadcast = s.Broadcast
	n.Transport = s.Env.Transport
	if n.Transport == nil {
		t, err := ListenUDP(s.Context, s.Bind)
		if err != nil {
			return err
		}
		n.Transport = t
		s.Log.Info("listening", "bind", s.Bind, "broadcast", s.Broadcast)
	}
	n.wg.Add(1)
	go n.receive(s.Env)
	return nil
}

func (n *OlsrNode) Cleanup(s *state.State) error {
	if n.Transport == nil {
		return nil
	}
	err := n.Transport.Close()
	n.wg.Wait()
	return err
}
