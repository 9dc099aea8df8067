package cmd

import (
	"net/http"

	"github.com/encodeous/dvsim/core"
	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run only the relay",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			panic(err)
		}
		log, err := newLogger("relay", cfg)
		if err != nil {
			panic(err)
		}
		serveDebug(log, cmd.Flag("debug-addr").Value.String())

		ctx, cancel := signalContext()
		defer cancel()

		relay := core.NewRelay(cfg.Topology(), log)
		err = relay.Start(ctx, cfg.Bind.String())
		if err != nil {
			panic(err)
		}
		http.Handle("/debug/inspect", core.InspectHandler(relay))
		go func() {
			for err := range relay.Errors() {
				log.Warn("session ended", "err", err)
			}
		}()
		err = relay.Wait()
		if err != nil {
			panic(err)
		}
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(relayCmd)

	relayCmd.Flags().String("debug-addr", "", "serve /debug/vars, /debug/metrics and /debug/inspect on this address")
}
