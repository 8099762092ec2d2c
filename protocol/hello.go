package protocol

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"time"
)

type LinkType uint8

const (
	UnspecLink LinkType = 0
	AsymLink   LinkType = 1
	SymLink    LinkType = 2
	LostLink   LinkType = 3
)

type NeighbourType uint8

const (
	NotNeigh NeighbourType = 0
	SymNeigh NeighbourType = 1
	MprNeigh NeighbourType = 2
)

const (
	WillNever   uint8 = 0
	WillLow     uint8 = 1
	WillDefault uint8 = 3
	WillHigh    uint8 = 6
	WillAlways  uint8 = 7
)

// LinkCode packs a link type (bits 0-1) and a neighbour type (bits 2-3). Bits 4-7 are reserved.
type LinkCode uint8

func NewLinkCode(lt LinkType, nt NeighbourType) LinkCode {
	return LinkCode(uint8(nt&0x03)<<2 | uint8(lt&0x03))
}

func (c LinkCode) LinkType() LinkType {
	return LinkType(c & 0x03)
}

func (c LinkCode) NeighbourType() NeighbourType {
	return NeighbourType((c >> 2) & 0x03)
}

func (c LinkCode) Valid() bool {
	return c&0xf0 == 0 && c.NeighbourType() <= MprNeigh
}

func (c LinkCode) String() string {
	lt := [...]string{"UNSPEC_LINK", "ASYM_LINK", "SYM_LINK", "LOST_LINK"}[c.LinkType()]
	nt := [...]string{"NOT_NEIGH", "SYM_NEIGH", "MPR_NEIGH", "INVALID"}[c.NeighbourType()]
	return lt + "/" + nt
}

type NeighbourGroup struct {
	Code      LinkCode
	Addresses []netip.Addr
}

type Hello struct {
	Htime       time.Duration
	Willingness uint8
	Groups      []NeighbourGroup
}

const (
	helloHeaderSize = 4
	groupHeaderSize = 4
)

func (h *Hello) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, helloHeaderSize)
	b = append(b, 0, 0, EncodeVtime(h.Htime), h.Willingness)
	for _, g := range h.Groups {
		if !g.Code.Valid() {
			return nil, fmt.Errorf("link code %#x: %w", uint8(g.Code), ErrInvalidLinkCode)
		}
		size := len(g.Addresses) * AddrSize
		if size > 0xffff {
			return nil, fmt.Errorf("group with %d addresses: %w", len(g.Addresses), ErrBadLength)
		}
		b = append(b, byte(g.Code), 0)
		b = binary.BigEndian.AppendUint16(b, uint16(size))
		for _, addr := range g.Addresses {
			if !addr.Is4() {
				return nil, fmt.Errorf("neighbour %s is not an IPv4 address", addr)
			}
			b = appendAddr(b, addr)
		}
	}
	return b, nil
}

func ParseHello(body []byte) (*Hello, error) {
	if len(body) < helloHeaderSize {
		return nil, fmt.Errorf("hello header: %w", ErrTruncated)
	}
	h := &Hello{
		Htime:       DecodeVtime(body[2]),
		Willingness: body[3],
	}
	rest := body[helloHeaderSize:]
	for len(rest) > 0 {
		if len(rest) < groupHeaderSize {
			return nil, fmt.Errorf("neighbour group header: %w", ErrTruncated)
		}
		code := LinkCode(rest[0])
		if !code.Valid() {
			return nil, fmt.Errorf("link code %#x: %w", rest[0], ErrInvalidLinkCode)
		}
		size := int(binary.BigEndian.Uint16(rest[2:4]))
		if size%AddrSize != 0 {
			return nil, fmt.Errorf("group length %d: %w", size, ErrBadGroupLength)
		}
		rest = rest[groupHeaderSize:]
		if size > len(rest) {
			return nil, fmt.Errorf("group length %d with %d bytes left: %w", size, len(rest), ErrTruncated)
		}
		g := NeighbourGroup{
			Code:      code,
			Addresses: make([]netip.Addr, 0, size/AddrSize),
		}
		for i := 0; i < size; i += AddrSize {
			g.Addresses = append(g.Addresses, readAddr(rest[i:]))
		}
		h.Groups = append(h.Groups, g)
		rest = rest[size:]
	}
	return h, nil
}
