package core

import (
	"fmt"
	"net/netip"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/encodeous/olsr/protocol"
	"github.com/encodeous/olsr/state"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

type RouterHarness struct {
	actions []HarnessEvent
	Sent    []protocol.Message
}

func (h *RouterHarness) SendMessage(msg protocol.Message) {
	h.Sent = append(h.Sent, msg)
	h.actions = append(h.actions, MakeEvent("SEND", msg.Type, msg.Originator, msg.TTL, msg.HopCount, msg.Seqno))
}

func (h *RouterHarness) Log(event RouterEvent, desc string, args ...any) {
	x := make([]any, 0)
	x = append(x, event)
	x = append(x, desc)
	x = append(x, args...)
	h.actions = append(h.actions, MakeEvent("LOG", x...))
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// GetActions returns every non-log action since the last call
func (h *RouterHarness) GetActions() HarnessEvents {
	x := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message != "LOG" {
			x = append(x, action)
		}
	}

	h.actions = make([]HarnessEvent, 0)
	return x
}

// GetLogs returns the logged events since the last call
func (h *RouterHarness) GetLogs() []RouterEvent {
	x := make([]RouterEvent, 0)
	rest := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message == "LOG" {
			x = append(x, action.Args[0].(RouterEvent))
		} else {
			rest = append(rest, action)
		}
	}
	h.actions = rest
	return x
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message == msg {
			if len(event.Args) >= len(args) {
				match := true
				for i, arg := range args {
					if !cmp.Equal(event.Args[i], arg, cmpopts.EquateComparable(netip.Addr{}, netip.Prefix{})) {
						match = false
						break
					}
				}
				if match {
					return true
				}
			}
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

func addr(s string) netip.Addr {
	return netip.MustParseAddr(s)
}

func prefix(s string) netip.Prefix {
	return netip.MustParsePrefix(s)
}

const testHtime = 2 * time.Second

// testValidity is the link validity derived from testHtime
const testValidity = 3 * testHtime

func NewTestState(self string) *state.RouterState {
	return state.NewRouterState(addr(self), protocol.WillDefault, testValidity)
}

func Group(lt protocol.LinkType, nt protocol.NeighbourType, addrs ...string) protocol.NeighbourGroup {
	g := protocol.NeighbourGroup{
		Code: protocol.NewLinkCode(lt, nt),
	}
	for _, a := range addrs {
		g.Addresses = append(g.Addresses, addr(a))
	}
	return g
}

func MakeHello(willingness uint8, groups ...protocol.NeighbourGroup) *protocol.Hello {
	return &protocol.Hello{
		Htime:       testHtime,
		Willingness: willingness,
		Groups:      groups,
	}
}

// MakeSymmetric delivers a HELLO from neigh that confirms the link to s, and announces twoHops as its symmetric neighbours.
func (h *RouterHarness) MakeSymmetric(s *state.RouterState, neigh string, now time.Time, twoHops ...string) {
	groups := []protocol.NeighbourGroup{Group(protocol.SymLink, protocol.SymNeigh, s.Id.String())}
	if len(twoHops) != 0 {
		groups = append(groups, Group(protocol.SymLink, protocol.SymNeigh, twoHops...))
	}
	ProcessHello(s, h, addr(neigh), MakeHello(protocol.WillDefault, groups...), now)
}

// SelectUs delivers a HELLO from neigh that confirms the link to s and names s as its MPR
func (h *RouterHarness) SelectUs(s *state.RouterState, neigh string, now time.Time) {
	ProcessHello(s, h, addr(neigh), MakeHello(protocol.WillDefault,
		Group(protocol.SymLink, protocol.MprNeigh, s.Id.String())), now)
}

func MakeMessage(typ protocol.MessageType, originator string, seqno uint16, ttl uint8, body []byte) protocol.Message {
	return protocol.Message{
		MessageHeader: protocol.MessageHeader{
			Type:       typ,
			Vtime:      protocol.EncodeVtime(15 * time.Second),
			Originator: addr(originator),
			TTL:        ttl,
			Seqno:      seqno,
		},
		Body: body,
	}
}

func MakeTcBody(ansn uint16, neighbours ...string) []byte {
	tc := &protocol.Tc{Ansn: ansn}
	for _, n := range neighbours {
		tc.Neighbours = append(tc.Neighbours, addr(n))
	}
	b, err := tc.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}
