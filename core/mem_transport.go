package core

import (
	"net"
	"net/netip"
	"slices"
	"sync"
)

// MemNetwork is an in-memory broadcast medium. Links are bidirectional and can be changed at runtime.
// Delivery is lossy like UDP: datagrams to a full inbox are dropped.
type MemNetwork struct {
	mu    sync.Mutex
	nodes map[netip.Addr]*MemTransport
	links map[netip.Addr]map[netip.Addr]struct{}
}

const DefaultMemPort = 698

var limitedBroadcast = netip.AddrFrom4([4]byte{255, 255, 255, 255})

type memDatagram struct {
	data []byte
	from netip.AddrPort
}

func NewMemNetwork() *MemNetwork {
	return &MemNetwork{
		nodes: make(map[netip.Addr]*MemTransport),
		links: make(map[netip.Addr]map[netip.Addr]struct{}),
	}
}

// Attach creates the transport of the node with address addr
func (m *MemNetwork) Attach(addr netip.Addr) *MemTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &MemTransport{
		network: m,
		addr:    netip.AddrPortFrom(addr, DefaultMemPort),
		inbox:   make(chan memDatagram, 256),
		closed:  make(chan struct{}),
	}
	m.nodes[addr] = t
	return t
}

func (m *MemNetwork) setLink(a, b netip.Addr, up bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pair := range [][2]netip.Addr{{a, b}, {b, a}} {
		adj, ok := m.links[pair[0]]
		if !ok {
			adj = make(map[netip.Addr]struct{})
			m.links[pair[0]] = adj
		}
		if up {
			adj[pair[1]] = struct{}{}
		} else {
			delete(adj, pair[1])
		}
	}
}

func (m *MemNetwork) Connect(a, b netip.Addr) {
	m.setLink(a, b, true)
}

func (m *MemNetwork) Disconnect(a, b netip.Addr) {
	m.setLink(a, b, false)
}

func (m *MemNetwork) deliver(from netip.AddrPort, to netip.AddrPort, pkt []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	broadcast := to.Addr() == netip.IPv4Unspecified() || to.Addr() == limitedBroadcast
	for addr := range m.links[from.Addr()] {
		if broadcast || to.Addr() == addr {
			if t, ok := m.nodes[addr]; ok {
				t.enqueue(memDatagram{data: slices.Clone(pkt), from: from})
			}
		}
	}
}

// MemTransport is the endpoint of one node on a MemNetwork
type MemTransport struct {
	network *MemNetwork
	addr    netip.AddrPort
	inbox   chan memDatagram
	closed  chan struct{}
	once    sync.Once
}

func (t *MemTransport) enqueue(d memDatagram) {
	select {
	case <-t.closed:
	case t.inbox <- d:
	default:
	}
}

// Send delivers pkt to every linked node when to is a broadcast address, or to the single linked node with that address.
func (t *MemTransport) Send(pkt []byte, to netip.AddrPort) error {
	select {
	case <-t.closed:
		return net.ErrClosed
	default:
	}
	t.network.deliver(t.addr, to, pkt)
	return nil
}

func (t *MemTransport) Receive(buf []byte) (int, netip.AddrPort, error) {
	select {
	case <-t.closed:
		return 0, netip.AddrPort{}, net.ErrClosed
	case d := <-t.inbox:
		return copy(buf, d.data), d.from, nil
	}
}

func (t *MemTransport) Close() error {
	t.once.Do(func() {
		close(t.closed)
	})
	return nil
}
