package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/sigverify/internal/app"
	"github.com/dropDatabas3/sigverify/internal/config"
	jwtx "github.com/dropDatabas3/sigverify/internal/jwt"
)

func newVerifyCmd(g *globals) *cobra.Command {
	var jwksURL string
	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Verifica un token compacto contra el JWKS (token por argumento o stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			if jwksURL != "" {
				cfg.JWKS.URL = jwksURL
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if strings.TrimSpace(cfg.JWKS.URL) == "" {
				return fmt.Errorf("--jwks-url es requerido (o jwks.url / JWKS_URL)")
			}

			token, err := readToken(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			keys := jwtx.NewKeyCache(
				jwtx.NewHTTPFetcher(cfg.JWKS.URL, config.Dur(cfg.JWKS.FetchTimeout)),
				jwtx.WithTTL(config.Dur(cfg.JWKS.CacheTTL)),
				jwtx.WithFetchTimeout(config.Dur(cfg.JWKS.FetchTimeout)),
			)
			vt, err := jwtx.NewVerifier(keys).VerifyToken(cmd.Context(), token)
			if err != nil {
				return err
			}

			var claims map[string]any
			if p := app.PolicyFrom(cfg); p != nil {
				claims, err = p.ValidateToken(vt)
			} else {
				claims, err = vt.Claims()
			}
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), g.out, map[string]any{
				"valid":  true,
				"alg":    string(vt.Header.Algorithm),
				"kid":    vt.Header.KeyID,
				"claims": claims,
			})
		},
	}
	cmd.Flags().StringVar(&jwksURL, "jwks-url", "", "URL del JWKS (pisa jwks.url / JWKS_URL)")
	return cmd
}

func readToken(in io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if line = strings.TrimSpace(line); line == "" {
		return "", fmt.Errorf("token vacío")
	}
	return line, nil
}
