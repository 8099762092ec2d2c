package state

import "time"

// paths
var (
	NodeConfigPath = "/etc/olsr/node.yaml"
	DefaultIpcPath = "/tmp/olsr.sock"
)

const (
	// DefaultPort is the IANA assigned OLSR port
	DefaultPort = 698
)

var (
	DefaultHelloInterval = time.Second * 2
	DefaultTcInterval    = time.Second * 5

	// HoldMultiplier scales HELLO_INTERVAL to NEIGHB_HOLD_TIME, and TC_INTERVAL to TOP_HOLD_TIME / HNA_HOLD_TIME.
	HoldMultiplier = 3

	DupHoldTime = time.Second * 30
	GcDelay     = time.Millisecond * 1000
	SafeMTU     = 1200

	// ExpiredOffset is subtracted from the current time to produce a deadline that has already passed.
	ExpiredOffset = time.Second

	// DispatchWarnThreshold is the dispatch duration after which the main loop complains.
	DispatchWarnThreshold = time.Millisecond * 4
)
