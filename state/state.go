package state

import (
	"context"
	"log/slog"
	"net/netip"
	"sync/atomic"
)

type NyModule interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on a single Goroutine
type State struct {
	*Env
	*RouterState
	Modules map[string]NyModule
}

// Env can be read from any Goroutine
type Env struct {
	DispatchChannel chan func(s *State) error
	LocalCfg
	Context  context.Context
	Cancel   context.CancelCauseFunc
	Log      *slog.Logger
	Started  atomic.Bool
	Stopping atomic.Bool
	// Transport overrides the UDP socket, used to run nodes over in-memory networks
	Transport Transport
}

// Transport is the datagram service the node runs over
type Transport interface {
	// Send transmits one datagram. It must not block for long, the main loop is waiting.
	Send(pkt []byte, to netip.AddrPort) error
	// Receive blocks until a datagram arrives or the transport is closed.
	Receive(buf []byte) (int, netip.AddrPort, error)
	Close() error
}
