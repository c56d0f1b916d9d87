// Package recovery reconstruye la clave pública secp256k1 del firmante a partir
// de un digest y una firma (r, s, v), y deriva su dirección Ethereum.
//
// Es cómputo puro: sin cache, sin red, determinístico para una misma entrada.
package recovery

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dropDatabas3/sigverify/internal/metrics"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

const (
	componentBytes = 32
	digestBytes    = 32
	// CompactLength es r ‖ s ‖ v.
	CompactLength = 2*componentBytes + 1
)

// Signature es una firma ECDSA recuperable. R y S son enteros big-endian sin
// signo de cualquier largo; V admite las convenciones 0/1, 27/28 y las bandas
// desplazadas 31–34 y 35–38.
type Signature struct {
	R []byte
	S []byte
	V byte
}

// ParseCompact separa una firma de 65 bytes r ‖ s ‖ v.
func ParseCompact(b []byte) (Signature, error) {
	if len(b) != CompactLength {
		return Signature{}, sigerr.E(sigerr.SignatureParseFailed, "recovery.ParseCompact", fmt.Errorf("expected %d bytes, got %d", CompactLength, len(b)))
	}
	return Signature{
		R: append([]byte(nil), b[:componentBytes]...),
		S: append([]byte(nil), b[componentBytes:2*componentBytes]...),
		V: b[2*componentBytes],
	}, nil
}

// NormalizeRecoveryID lleva v al rango del parser: resta 27, 31 o 35 según la
// banda. Cualquier otro valor queda igual (0/1 ya normalizados).
func NormalizeRecoveryID(v byte) byte {
	switch {
	case v >= 27 && v <= 30:
		return v - 27
	case v >= 31 && v <= 34:
		return v - 31
	case v >= 35 && v <= 38:
		return v - 35
	}
	return v
}

// pad32 rellena a izquierda; si sobra, conserva los 32 bytes menos significativos.
func pad32(b []byte) []byte {
	if len(b) >= componentBytes {
		return append([]byte(nil), b[len(b)-componentBytes:]...)
	}
	out := make([]byte, componentBytes)
	copy(out[componentBytes-len(b):], b)
	return out
}

// compact arma r ‖ s ‖ recid validando los rangos que exige el parser de
// firmas recuperables: recid 0..3 y 0 < r, s < n.
func (sig Signature) compact() ([]byte, error) {
	const op = "recovery.parse"

	recid := NormalizeRecoveryID(sig.V)
	if recid > 3 {
		return nil, sigerr.E(sigerr.SignatureParseFailed, op, fmt.Errorf("recovery id %d out of range", sig.V))
	}
	r, s := pad32(sig.R), pad32(sig.S)
	n := crypto.S256().Params().N
	for _, c := range [][]byte{r, s} {
		x := new(big.Int).SetBytes(c)
		if x.Sign() == 0 || x.Cmp(n) >= 0 {
			return nil, sigerr.E(sigerr.SignatureParseFailed, op, errors.New("component outside [1, n)"))
		}
	}
	out := make([]byte, 0, CompactLength)
	out = append(out, r...)
	out = append(out, s...)
	return append(out, recid), nil
}

// RecoverPublicKey devuelve los 64 bytes X ‖ Y de la clave que firmó digest
// (el prefijo 0x04 de punto no comprimido se descarta).
func RecoverPublicKey(sig Signature, digest []byte) (pub []byte, err error) {
	const op = "recovery.RecoverPublicKey"
	defer func() {
		metrics.SignerRecoveries.WithLabelValues(metrics.Result(string(sigerr.KindOf(err)))).Inc()
	}()

	if len(digest) != digestBytes {
		return nil, sigerr.E(sigerr.RecoveryFailed, op, fmt.Errorf("digest must be %d bytes, got %d", digestBytes, len(digest)))
	}
	c, err := sig.compact()
	if err != nil {
		return nil, err
	}
	point, err := crypto.Ecrecover(digest, c)
	if err != nil {
		return nil, sigerr.E(sigerr.RecoveryFailed, op, err)
	}
	if len(point) != 1+2*componentBytes || point[0] != 0x04 {
		return nil, sigerr.E(sigerr.RecoveryFailed, op, errors.New("unexpected point encoding"))
	}
	return point[1:], nil
}
