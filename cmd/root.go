package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var topologyPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vlsr",
	Short: "Virtual Link-State Router CLI",
	Long: `vlsr simulates a network of link-state routers inside a single process.
Routers discover each other over in-memory links, flood link-state
advertisements, and converge on shortest-path routing tables.`,
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
	rootCmd.PersistentFlags().StringVarP(&topologyPath, "topology", "c", "topology.yaml", "topology config file")
}
