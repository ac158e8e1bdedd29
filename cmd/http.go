package cmd

import (
	"context"
	"errors"

	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dipin13k/code-snippets/pkg/handler"
)

func NewHTTPCommand() *cobra.Command {
	v := newViper()
	// TODO: When keel is updated, set it in the correct place
	service.DefaultHTTPPProfAddr = ":6060"

	cmd := &cobra.Command{
		Use:     "http",
		Short:   "Start http server",
		Example: "  snippets http --address :8080 --storage-type sqlite",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithGracefulPeriod(gracefulPeriodFlag(v)),
				keel.WithOTLPGRPCTracer(otelEnabledFlag(v)),
				keel.WithHTTPPProfService(servicePProfEnabledFlag(v)),
			)

			l := svr.Logger()

			s, history, err := newStore(cmd.Context(), v, l)
			if err != nil {
				return err
			}

			isLoadedHealtherFn := healthz.NewHealthzerFn(func(ctx context.Context) error {
				if !s.Loaded() {
					return errors.New("collection not loaded yet")
				}
				return nil
			})
			// the collection loads on startup, readiness follows it
			svr.AddStartupHealthzers(isLoadedHealtherFn)
			svr.AddReadinessHealthzers(isLoadedHealtherFn)

			svr.AddClosers(func(ctx context.Context) error {
				return history.Close()
			})

			svr.AddServices(
				service.NewGoRoutine(l.Named("go.store"), "store", func(ctx context.Context, l *zap.Logger) error {
					return s.Start(ctx)
				}),
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewHTTP(l.Named("inst.handler"), s, handler.WithBasePath(basePathFlag(v))),
					middleware.Telemetry(),
					middleware.Logger(),
					middleware.GZip(middleware.GZipWithLevel(gzipLevelFlag(v))),
					middleware.Recover(),
				),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addAddressFlag(flags, v)
	addBasePathFlag(flags, v)
	addGracefulPeriodFlag(flags, v)
	addOtelEnabledFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)
	addServicePProfEnabledFlag(flags, v)
	addGzipLevelFlag(flags, v)
	addStorageFlags(flags, v)

	return cmd
}
