package state

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingTableLookup(t *testing.T) {
	rt := NewRoutingTable()
	b := netip.MustParseAddr("10.0.0.2")
	c := netip.MustParseAddr("10.0.0.3")
	rt.InsertHost(b, b, 1)
	rt.InsertHost(c, b, 2)
	rt.InsertNetwork(Route{
		Dest:    netip.MustParsePrefix("192.168.0.0/16"),
		NextHop: b,
		Hops:    2,
		Gateway: c,
	})

	r, ok := rt.Lookup(c)
	require.True(t, ok)
	assert.Equal(t, b, r.NextHop)
	assert.Equal(t, 2, r.Hops)

	r, ok = rt.Lookup(netip.MustParseAddr("192.168.4.20"))
	require.True(t, ok)
	assert.Equal(t, c, r.Gateway)
	assert.Equal(t, netip.MustParsePrefix("192.168.0.0/16"), r.Dest)

	_, ok = rt.Lookup(netip.MustParseAddr("172.16.0.1"))
	assert.False(t, ok)
	assert.Equal(t, 3, rt.Len())
}

func TestRoutingTableHostPrecedence(t *testing.T) {
	rt := NewRoutingTable()
	b := netip.MustParseAddr("10.0.0.2")
	c := netip.MustParseAddr("10.0.0.3")
	rt.InsertHost(c, b, 2)
	rt.InsertNetwork(Route{
		Dest:    netip.MustParsePrefix("10.0.0.3/32"),
		NextHop: c,
		Hops:    1,
		Gateway: b,
	})
	r, ok := rt.Lookup(c)
	require.True(t, ok)
	assert.False(t, r.Gateway.IsValid())
	assert.Equal(t, 2, r.Hops)
}

func TestRoutingTableString(t *testing.T) {
	rt := NewRoutingTable()
	b := netip.MustParseAddr("10.0.0.2")
	rt.InsertHost(netip.MustParseAddr("10.0.0.9"), b, 3)
	rt.InsertHost(b, b, 1)
	assert.Equal(t, `10.0.0.2 via (nh: 10.0.0.2, hops: 1)
10.0.0.9 via (nh: 10.0.0.2, hops: 3)`, rt.String())
}
