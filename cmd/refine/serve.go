package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rickchristie/refine/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(f *flags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP, SSE and websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := f.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			if cmd.Flags().Changed("addr") {
				a.config.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(a.manager).
				WithConfig(a.config.Refine).
				WithLogger(a.logger).
				ListenAndServe(ctx, a.config.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	return cmd
}
