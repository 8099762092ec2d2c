package cmd

import (
	"os"

	"github.com/encodeous/olsr/state"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "olsr",
	Short: "OLSR mesh routing daemon",
	Long: `olsr runs the control plane of the Optimized Link State Routing protocol (RFC 3626).
It discovers neighbours, elects multipoint relays, floods topology control messages, and computes a hop-count routing table.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "init",
		Title: "Initialize olsr",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "olsr",
		Title: "olsr Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&state.NodeConfigPath, "node-config", "n", state.NodeConfigPath, "node-specific config")
}
