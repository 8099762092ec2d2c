package cmd

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/encodeous/olsr/state"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new <address>",
	Short: "Writes a node config with default settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := netip.ParseAddr(args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(state.NodeConfigPath); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite it", state.NodeConfigPath)
		}
		cfg := state.LocalCfg{
			Address: addr,
		}
		cfg.ApplyDefaults()
		err = state.NodeConfigValidator(&cfg)
		if err != nil {
			return err
		}
		err = state.WriteNodeConfig(state.NodeConfigPath, &cfg)
		if err != nil {
			return err
		}
		fmt.Printf("wrote config for %s to %s\n", addr, state.NodeConfigPath)
		return nil
	},
	GroupID: "init",
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config")
}
