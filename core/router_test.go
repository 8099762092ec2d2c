package core

import (
	"context"
	"log/slog"
	"net/netip"
	"testing"
	"time"

	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFlushRouter wires a router to a node on a MemNetwork, returning the transport of a peer that hears every broadcast
func newFlushRouter(t *testing.T) (*OlsrRouter, *MemTransport) {
	t.Helper()
	network := NewMemNetwork()
	self := network.Attach(addr("10.0.0.1"))
	peer := network.Attach(addr("10.0.0.2"))
	network.Connect(addr("10.0.0.1"), addr("10.0.0.2"))
	t.Cleanup(func() {
		_ = self.Close()
		_ = peer.Close()
	})

	ctx, cancel := context.WithCancelCause(context.Background())
	t.Cleanup(func() { cancel(context.Canceled) })
	s := &state.State{
		Env: &state.Env{
			Context: ctx,
			Cancel:  cancel,
			Log:     slog.New(slog.DiscardHandler),
		},
		RouterState: NewTestState("10.0.0.1"),
		Modules:     make(map[string]state.NyModule),
	}
	node := &OlsrNode{
		Transport: self,
		broadcast: netip.AddrPortFrom(limitedBroadcast, DefaultMemPort),
	}
	s.Modules["*core.OlsrNode"] = node
	return &OlsrRouter{State: s}, peer
}

func receivePacket(t *testing.T, tr *MemTransport) *protocol.Packet {
	t.Helper()
	buf := make([]byte, 65535)
	n, _, err := tr.Receive(buf)
	require.NoError(t, err)
	pkt, err := protocol.ParsePacket(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, n, pkt.Len())
	return pkt
}

func TestFlushCoalesces(t *testing.T) {
	r, peer := newFlushRouter(t)
	for i := range 200 {
		r.SendMessage(MakeMessage(protocol.TcMessage, "10.0.0.1", uint16(i), 255, make([]byte, 100)))
	}
	require.NoError(t, r.Flush())
	assert.Empty(t, r.Pending)

	// 4 + 10 * 112 bytes fits, an eleventh message does not
	total := 0
	for i := range 20 {
		pkt := receivePacket(t, peer)
		assert.LessOrEqual(t, pkt.Len(), state.SafeMTU)
		assert.Len(t, pkt.Messages, 10)
		assert.Equal(t, uint16(i+1), pkt.Seqno)
		for _, msg := range pkt.Messages {
			assert.Equal(t, uint16(total), msg.Seqno)
			total++
		}
	}
	assert.Equal(t, 200, total)
	assert.Empty(t, peer.inbox)
}

func TestFlushOversizedMessage(t *testing.T) {
	r, peer := newFlushRouter(t)
	r.SendMessage(MakeMessage(protocol.TcMessage, "10.0.0.1", 1, 255, make([]byte, 16)))
	r.SendMessage(MakeMessage(protocol.TcMessage, "10.0.0.1", 2, 255, make([]byte, state.SafeMTU)))
	require.NoError(t, r.Flush())

	assert.Len(t, receivePacket(t, peer).Messages, 1)
	big := receivePacket(t, peer)
	require.Len(t, big.Messages, 1)
	assert.Len(t, big.Messages[0].Body, state.SafeMTU)
}

func TestFlushNothingPending(t *testing.T) {
	r, peer := newFlushRouter(t)
	require.NoError(t, r.Flush())
	assert.Empty(t, peer.inbox)
	assert.Zero(t, r.PktSeqno)
}

func TestGenerateHello(t *testing.T) {
	h := &RouterHarness{}
	now := time.Now()
	s := NewTestState("10.0.0.1")
	h.MakeSymmetric(s, "10.0.0.2", now)

	GenerateHello(s, h, testHtime, now)
	require.Len(t, h.Sent, 1)
	msg := h.Sent[0]
	assert.Equal(t, protocol.HelloMessage, msg.Type)
	assert.Equal(t, uint8(1), msg.TTL)
	assert.Equal(t, addr("10.0.0.1"), msg.Originator)
	assert.Equal(t, protocol.EncodeVtime(testValidity), msg.Vtime)

	hello, err := protocol.ParseHello(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, protocol.WillDefault, hello.Willingness)
	assert.Equal(t, testHtime, hello.Htime)
	require.Len(t, hello.Groups, 1)
	assert.Equal(t, protocol.NewLinkCode(protocol.SymLink, protocol.SymNeigh), hello.Groups[0].Code)
}

func TestGenerateTc(t *testing.T) {
	h := &RouterHarness{}
	now := time.Now()
	s := NewTestState("10.0.0.1")
	assert.False(t, GenerateTc(s, h, 15*time.Second))
	assert.Empty(t, h.Sent)

	h.MakeSymmetric(s, "10.0.0.3", now)
	h.SelectUs(s, "10.0.0.3", now)
	h.MakeSymmetric(s, "10.0.0.2", now)
	h.SelectUs(s, "10.0.0.2", now)
	assert.True(t, GenerateTc(s, h, 15*time.Second))
	require.Len(t, h.Sent, 1)
	msg := h.Sent[0]
	assert.Equal(t, uint8(protocol.MaxTTL), msg.TTL)

	tc, err := protocol.ParseTc(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), tc.Ansn)
	assert.Equal(t, []netip.Addr{addr("10.0.0.2"), addr("10.0.0.3")}, tc.Neighbours)

	// every originated message takes a fresh sequence number
	GenerateHello(s, h, testHtime, now)
	assert.Equal(t, msg.Seqno+1, h.Sent[1].Seqno)
}

func TestGenerateHna(t *testing.T) {
	h := &RouterHarness{}
	s := NewTestState("10.0.0.1")
	assert.False(t, GenerateHna(s, h, 15*time.Second))

	s.Networks = []netip.Prefix{prefix("192.168.1.0/24")}
	assert.True(t, GenerateHna(s, h, 15*time.Second))
	hna, err := protocol.ParseHna(h.Sent[0].Body)
	require.NoError(t, err)
	assert.Equal(t, s.Networks, hna.Networks)
}

func TestInspect(t *testing.T) {
	h := &RouterHarness{}
	now := time.Now()
	s := linearTopology(h, now)
	h.SelectUs(s, "10.0.0.2", now)
	HandleMessage(s, h, addr("10.0.0.2"), hnaMessage("10.0.0.4", 2, "192.168.4.0/24"), now)
	ComputeRoutes(s, h)

	out := Inspect(s, now)
	for _, section := range []string{
		"Node 10.0.0.1 (willingness 3, ansn 1)",
		"Links:\n - 10.0.0.2 SYM",
		"Neighbours:\n - (neigh: 10.0.0.2, status: SYM, will: 3)",
		"Two Hop Neighbours:\n - (two hop: 10.0.0.3 via 10.0.0.2)",
		"MPRs:\n - 10.0.0.2",
		"MPR Selectors:\n - 10.0.0.2",
		"Topology:\n - (dest: 10.0.0.2, last: 10.0.0.3, ansn: 1)",
		"Associations:\n - (network: 192.168.4.0/24, gw: 10.0.0.4)",
		"Duplicate Set: 2 entries",
		"10.0.0.4 via (nh: 10.0.0.2, hops: 3)",
		"192.168.4.0/24 via (nh: 10.0.0.2, hops: 3, gw: 10.0.0.4)",
	} {
		assert.Contains(t, out, section)
	}

	empty := Inspect(NewTestState("10.0.0.9"), now)
	assert.Contains(t, empty, "Route Table:\n  (none)")
}
