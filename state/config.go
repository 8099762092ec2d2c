package state

import (
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"github.com/encodeous/olsr/protocol"
	"github.com/goccy/go-yaml"
)

// LocalCfg represents local node-level configuration
type LocalCfg struct {
	Address       netip.Addr     `yaml:"address"`                  // main address of this node, used as originator address
	Bind          netip.AddrPort `yaml:"bind,omitempty"`           // local UDP address to listen on
	Broadcast     netip.AddrPort `yaml:"broadcast,omitempty"`      // destination of generated control traffic
	Willingness   *uint8         `yaml:"willingness,omitempty"`    // willingness to carry traffic for other nodes, 0-7
	HelloInterval time.Duration  `yaml:"hello_interval,omitempty"` // HELLO emission interval
	TcInterval    time.Duration  `yaml:"tc_interval,omitempty"`    // TC and HNA emission interval
	Prefixes      []netip.Prefix `yaml:"prefixes,omitempty"`       // networks announced through HNA
	LogPath       string         `yaml:"log_path,omitempty"`       // if not empty, olsr will write to this file
	IpcPath       string         `yaml:"ipc_path,omitempty"`       // unix socket used by `olsr inspect`
	DebugAddr     string         `yaml:"debug_addr,omitempty"`     // if not empty, serves /debug/metrics on this address
}

// ApplyDefaults fills in every unset optional field.
func (c *LocalCfg) ApplyDefaults() {
	if !c.Bind.IsValid() {
		c.Bind = netip.AddrPortFrom(netip.IPv4Unspecified(), DefaultPort)
	}
	if !c.Broadcast.IsValid() {
		c.Broadcast = netip.AddrPortFrom(netip.AddrFrom4([4]byte{255, 255, 255, 255}), DefaultPort)
	}
	if c.Willingness == nil {
		w := protocol.WillDefault
		c.Willingness = &w
	}
	if c.HelloInterval == 0 {
		c.HelloInterval = DefaultHelloInterval
	}
	if c.TcInterval == 0 {
		c.TcInterval = DefaultTcInterval
	}
	if c.IpcPath == "" {
		c.IpcPath = DefaultIpcPath
	}
}

func (c *LocalCfg) GetWillingness() uint8 {
	if c.Willingness == nil {
		return protocol.WillDefault
	}
	return *c.Willingness
}

// NeighbHoldTime is the validity advertised in HELLO messages
func (c *LocalCfg) NeighbHoldTime() time.Duration {
	return time.Duration(HoldMultiplier) * c.HelloInterval
}

// TopHoldTime is the validity advertised in TC messages
func (c *LocalCfg) TopHoldTime() time.Duration {
	return time.Duration(HoldMultiplier) * c.TcInterval
}

// HnaHoldTime is the validity advertised in HNA messages
func (c *LocalCfg) HnaHoldTime() time.Duration {
	return time.Duration(HoldMultiplier) * c.TcInterval
}

// MaxJitter bounds the random delay subtracted from every periodic emission
func (c *LocalCfg) MaxJitter() time.Duration {
	return c.HelloInterval / 4
}

func ReadNodeConfig(nodePath string) (*LocalCfg, error) {
	var nodeCfg LocalCfg
	file, err := os.ReadFile(nodePath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &nodeCfg)
	if err != nil {
		return nil, err
	}
	return &nodeCfg, nil
}

func WriteNodeConfig(nodePath string, cfg *LocalCfg) error {
	bytes, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(nodePath), 0700)
	if err != nil {
		return err
	}
	return os.WriteFile(nodePath, bytes, 0600)
}
