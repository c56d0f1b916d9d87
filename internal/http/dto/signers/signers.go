// Package signers contiene los DTOs de recuperación de firmantes secp256k1.
package signers

import "github.com/ethereum/go-ethereum/common/hexutil"

// RecoverRequest admite la firma compacta de 65 bytes o r/s/v por separado, y
// exactamente uno de digest (32 bytes) o message (personal_sign).
type RecoverRequest struct {
	Digest    hexutil.Bytes `json:"digest,omitempty"`
	Message   *string       `json:"message,omitempty"`
	Signature hexutil.Bytes `json:"signature,omitempty"`
	R         hexutil.Bytes `json:"r,omitempty"`
	S         hexutil.Bytes `json:"s,omitempty"`
	V         *uint64       `json:"v,omitempty"`
}

type RecoverResponse struct {
	PublicKey string `json:"public_key"` // 64 bytes X ‖ Y, hex con 0x
	Address   string `json:"address"`    // EIP-55
}
