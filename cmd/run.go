package cmd

import (
	"github.com/encodeous/olsr/core"
	"github.com/encodeous/olsr/state"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run olsr",
	Long:  `This will run olsr on the current host. Binding to the default port 698 usually requires elevated permissions.`,
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logPath, _ := cmd.Flags().GetString("log")
		err := core.Bootstrap(state.NodeConfigPath, logPath, verbose)
		if err != nil {
			panic(err)
		}
	},
	GroupID: "olsr",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	runCmd.Flags().StringP("log", "l", "", "Also write logs to this file")
}
