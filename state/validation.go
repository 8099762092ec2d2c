package state

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/encodeous/olsr/protocol"
)

func PathValidator(s string) error {
	_, err := os.Stat(path.Dir(s))
	if err != nil {
		return err
	}
	_, err = filepath.Abs(s)
	return err
}

func NodeConfigValidator(node *LocalCfg) error {
	if !node.Address.IsValid() || !node.Address.Is4() {
		return fmt.Errorf("address %s is not a valid IPv4 address", node.Address)
	}
	if node.Address.IsUnspecified() || node.Address.IsMulticast() {
		return fmt.Errorf("address %s cannot be used as a main address", node.Address)
	}
	if !node.Bind.IsValid() || !node.Bind.Addr().Is4() {
		return fmt.Errorf("bind %s is not a valid IPv4 address and port", node.Bind)
	}
	if !node.Broadcast.IsValid() || !node.Broadcast.Addr().Is4() || node.Broadcast.Port() == 0 {
		return fmt.Errorf("broadcast %s is not a valid IPv4 address and port", node.Broadcast)
	}
	if node.GetWillingness() > protocol.WillAlways {
		return fmt.Errorf("willingness %d is out of range [0, %d]", node.GetWillingness(), protocol.WillAlways)
	}
	if node.HelloInterval <= 0 {
		return fmt.Errorf("hello_interval must be positive, got %s", node.HelloInterval)
	}
	if node.TcInterval <= 0 {
		return fmt.Errorf("tc_interval must be positive, got %s", node.TcInterval)
	}
	for _, p := range node.Prefixes {
		if !p.IsValid() || !p.Addr().Is4() {
			return fmt.Errorf("prefix %s is not a valid IPv4 prefix", p)
		}
	}
	if node.LogPath != "" {
		if err := PathValidator(node.LogPath); err != nil {
			return fmt.Errorf("log_path: %w", err)
		}
	}
	if node.IpcPath != "" {
		if err := PathValidator(node.IpcPath); err != nil {
			return fmt.Errorf("ipc_path: %w", err)
		}
	}
	return nil
}
