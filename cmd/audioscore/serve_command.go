package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"audioscore/internal/logging"
	"audioscore/internal/observe"
	"audioscore/internal/preflight"
	"audioscore/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			if bind := strings.TrimSpace(bindFlag); bind != "" {
				cfg.Paths.APIBind = bind
			}

			runCtx := cmd.Context()
			mp, shutdownMetrics, err := observe.InitProvider(runCtx, observe.ProviderConfig{
				ServiceName:    "audioscore",
				ServiceVersion: version,
			})
			if err != nil {
				return fmt.Errorf("init metrics: %w", err)
			}
			defer func() { _ = shutdownMetrics(context.Background()) }()

			metrics, err := observe.NewMetrics(mp)
			if err != nil {
				return fmt.Errorf("init metrics: %w", err)
			}

			for _, result := range preflight.Failed(preflight.RunAll(runCtx, cfg)) {
				logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", result.Name),
					logging.String("detail", result.Detail),
					logging.String(logging.FieldImpact, "analysis requests will fail until resolved"),
					logging.String(logging.FieldErrorHint, "run audioscore doctor"),
				)
			}

			srv, err := server.New(cfg, newPipeline(cfg, logger, metrics), logger,
				server.WithMetricsHandler(promhttp.Handler()))
			if err != nil {
				return err
			}
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())

			<-runCtx.Done()
			srv.Stop()
			logger.Info("api server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Override paths.api_bind")
	return cmd
}
