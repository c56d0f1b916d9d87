package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/sigverify/internal/config"
	"github.com/dropDatabas3/sigverify/internal/observability/logger"
)

// version se pisa con -ldflags "-X main.version=..."
var version = "dev"

type globals struct {
	configPath string
	envFile    string
	out        string // json | text
	cfg        *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "sigverify",
		Short:         "Verificación de tokens RS256/ES256 contra JWKS y recuperación de firmantes secp256k1",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load()
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", envOr("SIGVERIFY_CONFIG", ""), "ruta a config.yaml (opcional, env SIGVERIFY_CONFIG)")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "ruta a .env (se ignora si no existe)")
	root.PersistentFlags().StringVar(&g.out, "out", "json", "Formato de salida: json|text")

	root.AddCommand(
		newServeCmd(g),
		newVerifyCmd(g),
		newRecoverCmd(g),
		newJWKSCmd(g),
	)
	return root
}

// load carga .env, la config y el logger. Los flags tienen prioridad sobre env.
func (g *globals) load() error {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("env-file: %w", err)
		}
	}

	var err error
	if strings.TrimSpace(g.configPath) != "" {
		g.cfg, err = config.Load(g.configPath)
	} else {
		g.cfg, err = config.Default()
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	g.cfg.App.Version = version

	logger.Init(logger.Config{
		Env:         g.cfg.App.Env,
		Level:       g.cfg.App.LogLevel,
		ServiceName: g.cfg.App.Name,
		Version:     version,
	})
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
