package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
)

var (
	ErrTruncated       = errors.New("truncated")
	ErrBadLength       = errors.New("invalid length field")
	ErrMessageOverrun  = errors.New("message overruns packet")
	ErrInvalidLinkCode = errors.New("invalid link code")
	ErrBadGroupLength  = errors.New("neighbour group length is not a multiple of the address size")
	ErrBadNetmask      = errors.New("non-contiguous netmask")
)

type MessageType uint8

const (
	HelloMessage MessageType = 1
	TcMessage    MessageType = 2
	MidMessage   MessageType = 3
	HnaMessage   MessageType = 4
)

func (t MessageType) String() string {
	switch t {
	case HelloMessage:
		return "HELLO"
	case TcMessage:
		return "TC"
	case MidMessage:
		return "MID"
	case HnaMessage:
		return "HNA"
	default:
		return fmt.Sprintf("TYPE(%d)", uint8(t))
	}
}

const (
	PacketHeaderSize  = 4
	MessageHeaderSize = 12
	AddrSize          = 4
	MaxTTL            = 255
)

// MessageHeader is the fixed part of every OLSR message.
// Size is recomputed when the message is marshalled.
type MessageHeader struct {
	Type       MessageType
	Vtime      uint8
	Size       uint16
	Originator netip.Addr
	TTL        uint8
	HopCount   uint8
	Seqno      uint16
}

// Message is a header followed by the raw, type specific body.
// The body is kept opaque so that forwarded messages are relayed unchanged.
type Message struct {
	MessageHeader
	Body []byte
}

// Packet is a packet header followed by any number of messages.
type Packet struct {
	Seqno    uint16
	Messages []Message
}

func (m *Message) Len() int {
	return MessageHeaderSize + len(m.Body)
}

func (m *Message) AppendBinary(b []byte) ([]byte, error) {
	if m.Len() > 0xffff {
		return b, fmt.Errorf("message body of %d bytes: %w", len(m.Body), ErrBadLength)
	}
	if !m.Originator.Is4() {
		return b, fmt.Errorf("originator %s is not an IPv4 address", m.Originator)
	}
	b = append(b, byte(m.Type), m.Vtime)
	b = binary.BigEndian.AppendUint16(b, uint16(m.Len()))
	b = appendAddr(b, m.Originator)
	b = append(b, m.TTL, m.HopCount)
	b = binary.BigEndian.AppendUint16(b, m.Seqno)
	return append(b, m.Body...), nil
}

func (p *Packet) Len() int {
	l := PacketHeaderSize
	for i := range p.Messages {
		l += p.Messages[i].Len()
	}
	return l
}

func (p *Packet) MarshalBinary() ([]byte, error) {
	l := p.Len()
	if l > 0xffff {
		return nil, fmt.Errorf("packet of %d bytes: %w", l, ErrBadLength)
	}
	b := make([]byte, 0, l)
	b = binary.BigEndian.AppendUint16(b, uint16(l))
	b = binary.BigEndian.AppendUint16(b, p.Seqno)
	var err error
	for i := range p.Messages {
		b, err = p.Messages[i].AppendBinary(b)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// ParsePacket decodes a datagram. Any framing error invalidates the whole datagram.
// Message bodies alias data.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < PacketHeaderSize {
		return nil, fmt.Errorf("packet header: %w", ErrTruncated)
	}
	length := int(binary.BigEndian.Uint16(data[0:2]))
	if length < PacketHeaderSize || length > len(data) {
		return nil, fmt.Errorf("packet length %d for %d byte datagram: %w", length, len(data), ErrBadLength)
	}
	pkt := &Packet{
		Seqno: binary.BigEndian.Uint16(data[2:4]),
	}
	rest := data[PacketHeaderSize:length]
	for len(rest) > 0 {
		if len(rest) < MessageHeaderSize {
			return nil, fmt.Errorf("message header: %w", ErrTruncated)
		}
		size := int(binary.BigEndian.Uint16(rest[2:4]))
		if size < MessageHeaderSize {
			return nil, fmt.Errorf("message size %d: %w", size, ErrBadLength)
		}
		if size > len(rest) {
			return nil, fmt.Errorf("message size %d with %d bytes left: %w", size, len(rest), ErrMessageOverrun)
		}
		pkt.Messages = append(pkt.Messages, Message{
			MessageHeader: MessageHeader{
				Type:       MessageType(rest[0]),
				Vtime:      rest[1],
				Size:       uint16(size),
				Originator: readAddr(rest[4:8]),
				TTL:        rest[8],
				HopCount:   rest[9],
				Seqno:      binary.BigEndian.Uint16(rest[10:12]),
			},
			Body: rest[MessageHeaderSize:size],
		})
		rest = rest[size:]
	}
	return pkt, nil
}

func appendAddr(b []byte, addr netip.Addr) []byte {
	a4 := addr.As4()
	return append(b, a4[:]...)
}

func readAddr(b []byte) netip.Addr {
	return netip.AddrFrom4([4]byte(b[:AddrSize]))
}
