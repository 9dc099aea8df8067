package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/encodeous/dvsim/core"
	"github.com/encodeous/dvsim/state"
	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node [id]",
	Short: "Run a single node against a running relay",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			_ = cmd.Usage()
			return
		}
		cfg, err := loadConfig()
		if err != nil {
			panic(err)
		}
		id := state.NodeId(args[0])
		log, err := newLogger(string(id), cfg)
		if err != nil {
			panic(err)
		}

		addr := cmd.Flag("relay").Value.String()
		if addr == "" {
			addr = core.DialAddr(cfg.Bind.String())
		}

		ctx, cancel := signalContext()
		defer cancel()

		node, err := core.NewNode(id, cfg.Topology().Identities(), log)
		if err != nil {
			fmt.Println("Error:", err.Error())
			os.Exit(-1)
		}
		err = node.Join(ctx, addr)
		if err != nil {
			panic(err)
		}
		err = node.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("node stopped", "err", err)
			os.Exit(1)
		}
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(nodeCmd)

	nodeCmd.Flags().StringP("relay", "r", "", "relay address, defaults to the bind address in the config")
}
