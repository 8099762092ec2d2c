package protocol

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
)

// Tc is a Topology Control body: the originator's advertised neighbour set, stamped with its ANSN.
type Tc struct {
	Ansn       uint16
	Neighbours []netip.Addr
}

const tcHeaderSize = 4

func (t *Tc) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, tcHeaderSize+len(t.Neighbours)*AddrSize)
	b = binary.BigEndian.AppendUint16(b, t.Ansn)
	b = append(b, 0, 0)
	for _, addr := range t.Neighbours {
		if !addr.Is4() {
			return nil, fmt.Errorf("advertised neighbour %s is not an IPv4 address", addr)
		}
		b = appendAddr(b, addr)
	}
	return b, nil
}

func ParseTc(body []byte) (*Tc, error) {
	if len(body) < tcHeaderSize {
		return nil, fmt.Errorf("tc header: %w", ErrTruncated)
	}
	rest := body[tcHeaderSize:]
	if len(rest)%AddrSize != 0 {
		return nil, fmt.Errorf("tc neighbour list of %d bytes: %w", len(rest), ErrBadLength)
	}
	t := &Tc{
		Ansn:       binary.BigEndian.Uint16(body[0:2]),
		Neighbours: make([]netip.Addr, 0, len(rest)/AddrSize),
	}
	for i := 0; i < len(rest); i += AddrSize {
		t.Neighbours = append(t.Neighbours, readAddr(rest[i:]))
	}
	return t, nil
}

// Hna is a Host and Network Association body, listing networks reachable through the originator.
type Hna struct {
	Networks []netip.Prefix
}

const hnaEntrySize = 2 * AddrSize

func (h *Hna) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, len(h.Networks)*hnaEntrySize)
	for _, p := range h.Networks {
		if !p.Addr().Is4() {
			return nil, fmt.Errorf("network %s is not an IPv4 prefix", p)
		}
		b = appendAddr(b, p.Masked().Addr())
		b = append(b, net.CIDRMask(p.Bits(), 32)...)
	}
	return b, nil
}

func ParseHna(body []byte) (*Hna, error) {
	if len(body)%hnaEntrySize != 0 {
		return nil, fmt.Errorf("hna body of %d bytes: %w", len(body), ErrBadLength)
	}
	h := &Hna{
		Networks: make([]netip.Prefix, 0, len(body)/hnaEntrySize),
	}
	for i := 0; i < len(body); i += hnaEntrySize {
		ones, bits := net.IPMask(body[i+AddrSize : i+hnaEntrySize]).Size()
		if bits == 0 {
			return nil, fmt.Errorf("hna entry %d: %w", i/hnaEntrySize, ErrBadNetmask)
		}
		h.Networks = append(h.Networks, netip.PrefixFrom(readAddr(body[i:]), ones).Masked())
	}
	return h, nil
}
