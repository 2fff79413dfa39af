package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/cspbc/api/reports"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr, token string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored check reports over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := root.service()
			if err != nil {
				return err
			}
			defer closeService(svc)
			if addr != "" {
				cfg.API.Addr = addr
			}
			if token != "" {
				cfg.API.Token = token
			}
			if err := cfg.API.Validate(); err != nil {
				return err
			}
			svc.ServeMetrics(cmd.Context())
			mux := reports.NewMux(svc.Reports, cfg.API.Token)
			return reports.Serve(cmd.Context(), cfg.API.Addr, mux, newLogger(cfg, "reports-api"))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides api.addr")
	cmd.Flags().StringVar(&token, "token", "", "bearer token, overrides api.token")
	return cmd
}
