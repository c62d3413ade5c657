package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lirlia/vlsr/core"
	"github.com/lirlia/vlsr/state"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulated topology",
	Long:  `Loads the topology config, brings up every router and link, and runs until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := state.LoadTopology(topologyPath)
		if err != nil {
			panic(err)
		}

		level := slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			level = slog.LevelDebug
		}

		err = core.Run(cfg, level)
		if err != nil {
			panic(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
}
