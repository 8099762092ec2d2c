package core

import (
	"net/netip"
	"testing"
	"time"

	"github.com/encodeous/olsr/protocol"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLinkIsAsymmetric(t *testing.T) {
	h := &RouterHarness{}
	s := NewTestState("10.0.0.1")
	now := time.Now()

	changed := ProcessHelloLinks(s, h, addr("10.0.0.2"), MakeHello(protocol.WillDefault), now)
	assert.False(t, changed)

	link, ok := s.Links[addr("10.0.0.2")]
	require.True(t, ok)
	assert.False(t, link.IsSymmetric(now))
	assert.True(t, link.IsAsymmetric(now))
	assert.Equal(t, now.Add(testValidity), link.AsymExpiry)
	assert.Equal(t, link.AsymExpiry.Add(s.NeighbHoldTime), link.TotalExpiry())
	assert.Contains(t, h.GetLogs(), LinkAdded)
}

func TestLinkBecomesSymmetric(t *testing.T) {
	for name, lt := range map[string]protocol.LinkType{"asym": protocol.AsymLink, "sym": protocol.SymLink} {
		t.Run(name, func(t *testing.T) {
			h := &RouterHarness{}
			s := NewTestState("10.0.0.1")
			now := time.Now()
			ProcessHelloLinks(s, h, addr("10.0.0.2"), MakeHello(protocol.WillDefault), now)

			later := now.Add(time.Second)
			changed := ProcessHelloLinks(s, h, addr("10.0.0.2"), MakeHello(protocol.WillDefault,
				Group(lt, protocol.NotNeigh, "10.0.0.1")), later)
			assert.True(t, changed)

			link := s.Links[addr("10.0.0.2")]
			assert.True(t, link.IsSymmetric(later))
			assert.False(t, link.IsAsymmetric(later))
			assert.Equal(t, later.Add(testValidity), link.SymExpiry)
			assert.False(t, link.TotalExpiry().Before(link.SymExpiry))
			assert.False(t, link.TotalExpiry().Before(link.AsymExpiry))
			assert.Contains(t, h.GetLogs(), LinkSymmetric)
		})
	}
}

func TestHelloWithoutUsKeepsAsymmetric(t *testing.T) {
	h := &RouterHarness{}
	s := NewTestState("10.0.0.1")
	now := time.Now()
	ProcessHelloLinks(s, h, addr("10.0.0.2"), MakeHello(protocol.WillDefault,
		Group(protocol.SymLink, protocol.SymNeigh, "10.0.0.3", "10.0.0.4")), now)
	assert.False(t, s.Links[addr("10.0.0.2")].IsSymmetric(now))
}

func TestLostLinkDemotes(t *testing.T) {
	h := &RouterHarness{}
	s := NewTestState("10.0.0.1")
	now := time.Now()
	h.MakeSymmetric(s, "10.0.0.2", now)
	require.True(t, s.Links[addr("10.0.0.2")].IsSymmetric(now))

	later := now.Add(100 * time.Millisecond)
	changed := ProcessHelloLinks(s, h, addr("10.0.0.2"), MakeHello(protocol.WillDefault,
		Group(protocol.LostLink, protocol.NotNeigh, "10.0.0.1")), later)
	assert.True(t, changed)

	link := s.Links[addr("10.0.0.2")]
	assert.False(t, link.IsSymmetric(later))
	assert.True(t, link.IsAsymmetric(later))
	assert.Contains(t, h.GetLogs(), LinkAsymmetric)
}

func TestLinkCleanupRespectsTotalExpiry(t *testing.T) {
	h := &RouterHarness{}
	s := NewTestState("10.0.0.1")
	now := time.Now()
	h.MakeSymmetric(s, "10.0.0.2", now)
	link := s.Links[addr("10.0.0.2")]
	total := link.TotalExpiry()
	assert.Equal(t, now.Add(testValidity+s.NeighbHoldTime), total)

	// not heard, not symmetric, but still held so it can be announced as lost
	held := now.Add(testValidity + time.Millisecond)
	assert.True(t, link.IsLost(held))
	assert.False(t, LinkCleanup(s, h, held))
	assert.False(t, LinkCleanup(s, h, total))
	assert.Contains(t, s.Links, addr("10.0.0.2"))

	assert.True(t, LinkCleanup(s, h, total.Add(time.Millisecond)))
	assert.NotContains(t, s.Links, addr("10.0.0.2"))
	assert.Contains(t, h.GetLogs(), LinkRemoved)
}

func TestHelloGroups(t *testing.T) {
	h := &RouterHarness{}
	s := NewTestState("10.0.0.1")
	now := time.Now()

	h.MakeSymmetric(s, "10.0.0.5", now)
	h.MakeSymmetric(s, "10.0.0.4", now)
	h.MakeSymmetric(s, "10.0.0.3", now)
	ProcessHelloLinks(s, h, addr("10.0.0.6"), MakeHello(protocol.WillDefault), now.Add(5*time.Second))
	// a link that has not been heard from since now is lost by the time we announce
	s.Mprs = map[netip.Addr]struct{}{addr("10.0.0.5"): {}}
	later := now.Add(testValidity + time.Second)
	ProcessHelloLinks(s, h, addr("10.0.0.4"), MakeHello(protocol.WillDefault,
		Group(protocol.SymLink, protocol.SymNeigh, "10.0.0.1")), later)
	ProcessHelloLinks(s, h, addr("10.0.0.5"), MakeHello(protocol.WillDefault,
		Group(protocol.SymLink, protocol.SymNeigh, "10.0.0.1")), later)

	expected := []protocol.NeighbourGroup{
		Group(protocol.SymLink, protocol.SymNeigh, "10.0.0.4"),
		Group(protocol.SymLink, protocol.MprNeigh, "10.0.0.5"),
		Group(protocol.AsymLink, protocol.NotNeigh, "10.0.0.6"),
		Group(protocol.LostLink, protocol.NotNeigh, "10.0.0.3"),
	}
	if diff := cmp.Diff(expected, HelloGroups(s, later), cmpopts.EquateComparable(netip.Addr{})); diff != "" {
		t.Fatalf("hello groups mismatch (-want +got):\n%s", diff)
	}
}

func TestHelloGroupsEmpty(t *testing.T) {
	s := NewTestState("10.0.0.1")
	assert.Empty(t, HelloGroups(s, time.Now()))
}
