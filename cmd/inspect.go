package cmd

import (
	"fmt"

	"github.com/encodeous/olsr/core"
	"github.com/encodeous/olsr/state"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect [socket]",
	Aliases: []string{"i"},
	Short:   "Inspects the current state of a running olsr node",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := state.DefaultIpcPath
		if len(args) == 1 {
			path = args[0]
		} else if cfg, err := state.ReadNodeConfig(state.NodeConfigPath); err == nil && cfg.IpcPath != "" {
			path = cfg.IpcPath
		}
		result, err := core.IPCGet(path)
		if err != nil {
			fmt.Println("Error:", err.Error())
			return
		}
		fmt.Print(result)
	},
	GroupID: "olsr",
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
