package cmd

import (
	"net/http"

	"github.com/encodeous/dvsim/core"
	"github.com/encodeous/dvsim/state"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:     "simulate",
	Aliases: []string{"run"},
	Short:   "Run the relay and every node in this process",
	Long:    `Starts the relay, then one node per identity in the topology, joining them one after another. The simulation runs until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			panic(err)
		}
		log, err := newLogger("sim", cfg)
		if err != nil {
			panic(err)
		}
		stagger, _ := cmd.Flags().GetDuration("stagger")
		serveDebug(log, cmd.Flag("debug-addr").Value.String())

		ctx, cancel := signalContext()
		defer cancel()

		log.Info("starting simulation. To exit, send SIGINT or Ctrl+C.", "bind", cfg.Bind)
		sim, err := core.StartSimulation(ctx, cfg, log, stagger)
		if err != nil {
			panic(err)
		}
		http.Handle("/debug/inspect", core.InspectHandler(sim.Relay))
		err = sim.Run(ctx)
		if err != nil {
			panic(err)
		}
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().Duration("stagger", state.JoinStagger, "delay between node joins")
	simulateCmd.Flags().String("debug-addr", "", "serve /debug/vars, /debug/metrics and /debug/inspect on this address")
}
