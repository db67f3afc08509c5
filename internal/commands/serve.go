package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/txenrich/internal/api"
	"github.com/cleared-dev/txenrich/internal/logger"
)

func newServeCommand(e *env) *cobra.Command {
	var addr, rulesFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the enrichment HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = e.cfg.Server.Addr
			}
			enricher, err := e.enricher(rulesFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger.FromContext(cmd.Context()).With().Str("component", "api").Logger()
			return api.NewServer(enricher, e.cfg.Analysis.TopN, log).Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "rules YAML file (overrides the project rules)")

	return cmd
}
