package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/sigverify/internal/jwt"
	"github.com/dropDatabas3/sigverify/internal/util/atomicwrite"
)

func newJWKSCmd(g *globals) *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "jwks kid=path.pem [kid=path.pem ...]",
		Short: "Genera un documento JWKS a partir de claves públicas PEM (RSA o EC P-256)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make(map[string]any, len(args))
			for _, arg := range args {
				kid, path, ok := strings.Cut(arg, "=")
				if !ok || kid == "" || path == "" {
					return fmt.Errorf("argumento inválido %q (esperado kid=path.pem)", arg)
				}
				if _, dup := keys[kid]; dup {
					return fmt.Errorf("kid duplicado %q", kid)
				}
				b, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				pub, err := jwtx.ParsePublicKeyPEM(b)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				keys[kid] = pub
			}

			body, err := jwtx.MarshalKeySet(keys)
			if err != nil {
				return err
			}
			if outFile != "" {
				return atomicwrite.WriteFile(outFile, append(body, '\n'), 0o644)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return err
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "archivo de salida (default stdout)")
	return cmd
}
