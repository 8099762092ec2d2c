package core

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"
)

// UdpTransport is a broadcast capable IPv4 UDP socket
type UdpTransport struct {
	conn *net.UDPConn
}

func ListenUDP(ctx context.Context, bind netip.AddrPort) (*UdpTransport, error) {
	lc := net.ListenConfig{
		Control: setSockOpts,
	}
	pc, err := lc.ListenPacket(ctx, "udp4", bind.String())
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", bind, err)
	}
	conn := pc.(*net.UDPConn)
	// OLSR packets never leave the local link
	err = ipv4.NewPacketConn(conn).SetTTL(1)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set ttl on %s: %w", bind, err)
	}
	return &UdpTransport{conn: conn}, nil
}

func (u *UdpTransport) Send(pkt []byte, to netip.AddrPort) error {
	_, err := u.conn.WriteToUDPAddrPort(pkt, to)
	return err
}

func (u *UdpTransport) Receive(buf []byte) (int, netip.AddrPort, error) {
	n, from, err := u.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		return 0, netip.AddrPort{}, err
	}
	return n, netip.AddrPortFrom(from.Addr().Unmap(), from.Port()), nil
}

func (u *UdpTransport) Close() error {
	return u.conn.Close()
}
