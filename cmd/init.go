package cmd

import (
	"fmt"
	"os"

	"github.com/encodeous/dvsim/state"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in topology to the config path",
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configPath); err == nil && !force {
			fmt.Printf("%s already exists, use --force to overwrite it\n", configPath)
			os.Exit(-1)
		}
		err := state.WriteSimCfg(configPath, state.DefaultSimCfg())
		if err != nil {
			panic(err)
		}
		fmt.Printf("Wrote topology to %s\n", configPath)
	},
	GroupID: "cfg",
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validates the topology config and prints every node's neighbours",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := state.ReadSimCfg(configPath)
		if err != nil {
			fmt.Println("Error:", err.Error())
			os.Exit(-1)
		}
		topo := cfg.Topology()
		fmt.Println("Topology is valid")
		fmt.Printf("Relay binds to %s\n", cfg.Bind)
		for _, id := range topo.Identities() {
			fmt.Printf(" - %s: %s\n", id, topo[id])
		}
	},
	GroupID: "cfg",
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolP("force", "f", false, "overwrite an existing config")

	rootCmd.AddCommand(verifyCmd)
}
