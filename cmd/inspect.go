package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/encodeous/dvsim/core"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <debug-addr>",
	Short: "Print the sessions and routing tables of a running relay",
	Long:  `Queries the debug server of a relay or simulation started with --debug-addr.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		res, err := core.InspectGet(ctx, args[0])
		if err != nil {
			fmt.Println("Error:", err.Error())
			os.Exit(1)
		}
		fmt.Print(res)
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
