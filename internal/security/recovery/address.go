package recovery

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// PersonalMessageHash calcula el digest EIP-191 de personal_sign:
// keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg).
func PersonalMessageHash(msg []byte) []byte {
	return accounts.TextHash(msg)
}

// AddressFromPublicKey deriva la dirección a partir de X ‖ Y (64 bytes) o del
// punto no comprimido completo (65 bytes, 0x04 ‖ X ‖ Y). El punto tiene que
// estar en secp256k1.
func AddressFromPublicKey(pub []byte) (common.Address, error) {
	const op = "recovery.AddressFromPublicKey"
	if len(pub) == 64 {
		pub = append([]byte{0x04}, pub...)
	}
	if len(pub) != 65 || pub[0] != 0x04 {
		return common.Address{}, sigerr.E(sigerr.DecodingFailed, op, errors.New("public key must be 64 or 65 bytes"))
	}
	key, err := crypto.UnmarshalPubkey(pub)
	if err != nil {
		return common.Address{}, sigerr.E(sigerr.DecodingFailed, op, err)
	}
	return crypto.PubkeyToAddress(*key), nil
}

// RecoverAddress recupera la clave y devuelve la dirección del firmante.
func RecoverAddress(sig Signature, digest []byte) (common.Address, error) {
	pub, err := RecoverPublicKey(sig, digest)
	if err != nil {
		return common.Address{}, err
	}
	return AddressFromPublicKey(pub)
}

// RecoverPersonalSigner aplica EIP-191 sobre msg y devuelve el firmante.
func RecoverPersonalSigner(sig Signature, msg []byte) (common.Address, error) {
	return RecoverAddress(sig, PersonalMessageHash(msg))
}
