package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lirlia/vlsr/state"
)

const exampleTopology = `routers:
  - id: r1
    prefixes: ["10.0.1.0/24"]
  - id: r2
    prefixes: ["10.0.2.0/24"]
  - id: r3
    prefixes: ["10.0.3.0/24"]
links:
  - a: r1
    b: r2
    cost: 1
  - a: r2
    b: r3
    cost: 1
  - a: r1
    b: r3
    cost: 5
`

// initCmd writes an example three-router topology to the configured path.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example topology config",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(topologyPath); err == nil {
			fmt.Printf("%s already exists, refusing to overwrite\n", topologyPath)
			os.Exit(-1)
		}

		// keep the example honest
		if _, err := state.ParseTopology([]byte(exampleTopology)); err != nil {
			panic(err)
		}

		if err := os.WriteFile(topologyPath, []byte(exampleTopology), 0600); err != nil {
			panic(err)
		}
		fmt.Printf("wrote example topology to %s\n", topologyPath)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
