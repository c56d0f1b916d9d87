package jwt

import (
	"fmt"

	"github.com/dropDatabas3/sigverify/internal/security/der"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// Las firmas ECDSA P-256 viajan en dos codificaciones incompatibles:
// RawSignature (r ‖ s de 32 bytes cada uno, la forma JWS) y DERSignature
// (SEQUENCE { INTEGER r, INTEGER s }, la forma X9.62 que espera crypto/ecdsa).

// RawSignature es r ‖ s de ancho fijo.
type RawSignature [2 * p256FieldBytes]byte

// DERSignature es un ECDSA-Sig-Value codificado en DER.
type DERSignature []byte

// ParseRawSignature exige exactamente 64 bytes.
func ParseRawSignature(b []byte) (RawSignature, error) {
	var raw RawSignature
	if len(b) != len(raw) {
		return raw, sigerr.E(sigerr.DecodingFailed, "jwt.ParseRawSignature", fmt.Errorf("expected %d bytes, got %d", len(raw), len(b)))
	}
	copy(raw[:], b)
	return raw, nil
}

// R devuelve la mitad r.
func (s RawSignature) R() []byte { return s[:p256FieldBytes] }

// S devuelve la mitad s.
func (s RawSignature) S() []byte { return s[p256FieldBytes:] }

// DER codifica la firma como SEQUENCE de dos INTEGER.
func (s RawSignature) DER() DERSignature {
	payload := append(der.EncodeInteger(s.R()), der.EncodeInteger(s.S())...)
	return DERSignature(der.EncodeSequence(payload))
}

// Raw decodifica el SEQUENCE y devuelve r ‖ s de 64 bytes.
func (d DERSignature) Raw() (RawSignature, error) {
	var raw RawSignature
	r, s, err := der.DecodeIntegerPair(d, p256FieldBytes)
	if err != nil {
		return raw, err
	}
	copy(raw[:p256FieldBytes], r)
	copy(raw[p256FieldBytes:], s)
	return raw, nil
}

// IsDER indica si b ya empieza con el tag SEQUENCE.
func IsDER(b []byte) bool {
	return len(b) > 0 && b[0] == der.TagSequence
}

// NormalizeES256Signature lleva una firma ES256 a DER. Si empieza con el tag
// SEQUENCE se trata como DER y un DER que no parsea es una firma inválida; la
// única excepción es un raw de 64 bytes cuyo r empieza con 0x30. Cualquier otra
// cosa debe ser la forma raw de 64 bytes.
func NormalizeES256Signature(b []byte) (DERSignature, error) {
	if IsDER(b) {
		_, err := DERSignature(b).Raw()
		if err == nil {
			return DERSignature(b), nil
		}
		if len(b) != len(RawSignature{}) {
			return nil, sigerr.E(sigerr.SignatureInvalid, "jwt.NormalizeES256Signature", err)
		}
	}
	raw, err := ParseRawSignature(b)
	if err != nil {
		return nil, err
	}
	return raw.DER(), nil
}
