package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/sigverify/internal/security/recovery"
)

func newRecoverCmd(g *globals) *cobra.Command {
	var digestHex, message, sigHex string
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Recupera la clave pública y la dirección de una firma secp256k1 (r‖s‖v)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sigHex == "" {
				return fmt.Errorf("--signature es requerido")
			}
			if (digestHex == "") == (message == "") {
				return fmt.Errorf("usar exactamente uno de --digest o --message")
			}
			raw, err := hexutil.Decode(sigHex)
			if err != nil {
				return fmt.Errorf("--signature: %w", err)
			}
			sig, err := recovery.ParseCompact(raw)
			if err != nil {
				return err
			}

			var digest []byte
			if message != "" {
				digest = recovery.PersonalMessageHash([]byte(message))
			} else if digest, err = hexutil.Decode(digestHex); err != nil {
				return fmt.Errorf("--digest: %w", err)
			}

			pub, err := recovery.RecoverPublicKey(sig, digest)
			if err != nil {
				return err
			}
			addr, err := recovery.AddressFromPublicKey(pub)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), g.out, map[string]any{
				"public_key": hexutil.Encode(pub),
				"address":    addr.Hex(),
			})
		},
	}
	cmd.Flags().StringVar(&sigHex, "signature", "", "firma de 65 bytes en hex con 0x")
	cmd.Flags().StringVar(&digestHex, "digest", "", "digest de 32 bytes en hex con 0x")
	cmd.Flags().StringVar(&message, "message", "", "mensaje firmado con personal_sign (EIP-191)")
	return cmd
}
