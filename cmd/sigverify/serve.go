package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/sigverify/internal/app"
	"github.com/dropDatabas3/sigverify/internal/config"
	httpx "github.com/dropDatabas3/sigverify/internal/http"
	"github.com/dropDatabas3/sigverify/internal/observability/logger"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP (/v1/tokens/verify, /v1/signers/recover, /v1/pairings, /readyz, /metrics)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			defer func() { _ = logger.Sync() }()
			log := logger.L().With(logger.Component("serve"))

			a, err := app.New(cfg, app.Options{})
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn("cleanup error", logger.Err(err))
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			warmCtx, cancel := context.WithTimeout(ctx, config.Dur(cfg.JWKS.FetchTimeout))
			a.Warmup(warmCtx)
			cancel()

			log.Info("sigverify starting",
				logger.String("addr", cfg.Server.Addr),
				logger.String("env", cfg.App.Env),
				logger.String("cache", cfg.Cache.Kind),
				logger.Bool("jwks", a.Keys != nil),
				logger.Bool("rate_limit", cfg.Rate.Enabled),
			)

			srv := httpx.NewServer(httpx.ServerConfig{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     config.Dur(cfg.Server.ReadTimeout),
				WriteTimeout:    config.Dur(cfg.Server.WriteTimeout),
				ShutdownTimeout: config.Dur(cfg.Server.ShutdownTimeout),
			}, a.Handler)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "dirección de escucha (pisa server.addr / SERVER_ADDR)")
	return cmd
}
