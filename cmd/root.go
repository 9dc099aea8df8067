package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const DefaultConfigPath = "topology.yaml"

var (
	configPath = DefaultConfigPath
	logPath    = ""
	verbose    = false
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dvsim",
	Short: "Distance-vector routing simulator",
	Long: `dvsim simulates a distance-vector (Bellman-Ford) routing protocol.
A central relay stands in for the links of a fixed topology, and every node converges its routing table by exchanging distance vectors with its neighbours.`,
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
		ID:    "cfg",
		Title: "Configure the Topology",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "sim",
		Title: "Simulation Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "topology config, the built-in topology is used if the file does not exist")
	rootCmd.PersistentFlags().StringVarP(&logPath, "log", "l", logPath, "also write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
}
