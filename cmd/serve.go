package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sekarsister/prediksi-pembenihan/internal/server"
)

func serveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve forecasts over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The dataset is validated once; a bad dataset stops the server from starting.
			fc, store, err := a.session()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			srv := server.New(fc, server.Options{
				Catalog:        store,
				DefaultPeriods: a.settings.Forecast.DefaultPeriods,
				Logger:         a.logger,
				Registry:       reg,
			})
			return srv.Run(ctx, a.settings.Server.Addr)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
