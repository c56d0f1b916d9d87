package jwt

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"

	"github.com/dropDatabas3/sigverify/internal/security/der"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// Algorithm es el "alg" del header de un token compacto.
type Algorithm string

const (
	RS256 Algorithm = "RS256"
	ES256 Algorithm = "ES256"
)

// ParseAlgorithm normaliza el alg (case-insensitive) y rechaza todo lo que no
// sea RS256 o ES256.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToUpper(strings.TrimSpace(s))) {
	case RS256:
		return RS256, nil
	case ES256:
		return ES256, nil
	}
	return "", sigerr.E(sigerr.UnsupportedAlgorithm, "jwt.ParseAlgorithm", errors.New(s))
}

// Tipos de clave y curva soportados.
const (
	KeyTypeRSA = "RSA"
	KeyTypeEC  = "EC"
	CurveP256  = "P-256"
)

// p256FieldBytes es el ancho de una coordenada / componente de firma en P-256.
const p256FieldBytes = 32

// KeyDescriptor es la forma ya decodificada de un JWK publicado.
// Se reconstruye en cada refresh del JWKS; nunca se muta.
type KeyDescriptor struct {
	KeyType       string // "RSA" | "EC"
	KeyID         string
	AlgorithmHint string // "alg" opcional del JWK
	Use           string
	Curve         string // sólo EC
	X, Y          []byte // sólo EC
	Modulus       []byte // sólo RSA
	Exponent      []byte // sólo RSA
}

// PublicKeyHandle es la clave nativa lista para verificar. Se construye por
// verificación y no se cachea.
type PublicKeyHandle struct {
	kid string
	alg Algorithm
	key any // *rsa.PublicKey | *ecdsa.PublicKey
}

func (h *PublicKeyHandle) KeyID() string        { return h.kid }
func (h *PublicKeyHandle) Algorithm() Algorithm { return h.alg }

// Key devuelve la clave nativa (*rsa.PublicKey o *ecdsa.PublicKey).
func (h *PublicKeyHandle) Key() any { return h.key }

// BuildPublicKey convierte un descriptor en una clave verificable para alg.
// El tipo de clave/curva se valida antes de mirar los campos numéricos.
func BuildPublicKey(desc KeyDescriptor, alg Algorithm) (*PublicKeyHandle, error) {
	const op = "jwt.BuildPublicKey"
	kty := strings.ToUpper(desc.KeyType)

	switch alg {
	case RS256:
		if kty != KeyTypeRSA {
			return nil, sigerr.E(sigerr.UnsupportedAlgorithm, op, errors.New("RS256 requires an RSA key, got "+desc.KeyType))
		}
		if len(desc.Modulus) == 0 || len(desc.Exponent) == 0 {
			return nil, sigerr.E(sigerr.DecodingFailed, op, errors.New("rsa key without n/e"))
		}
		pub, err := rsaPublicKey(desc.Modulus, desc.Exponent)
		if err != nil {
			return nil, sigerr.E(sigerr.KeyCreationFailed, op, err)
		}
		return &PublicKeyHandle{kid: desc.KeyID, alg: alg, key: pub}, nil

	case ES256:
		if kty != KeyTypeEC || desc.Curve != CurveP256 {
			return nil, sigerr.E(sigerr.UnsupportedAlgorithm, op, errors.New("ES256 requires an EC P-256 key, got "+desc.KeyType+"/"+desc.Curve))
		}
		if len(desc.X) == 0 || len(desc.Y) == 0 {
			return nil, sigerr.E(sigerr.DecodingFailed, op, errors.New("ec key without x/y"))
		}
		pub, err := p256PublicKey(desc.X, desc.Y)
		if err != nil {
			return nil, sigerr.E(sigerr.KeyCreationFailed, op, err)
		}
		return &PublicKeyHandle{kid: desc.KeyID, alg: alg, key: pub}, nil
	}
	return nil, sigerr.E(sigerr.UnsupportedAlgorithm, op, errors.New(string(alg)))
}

// RSAPublicKeyDER arma el SubjectPublicKeyInfo:
//
//	SEQUENCE { AlgorithmIdentifier(rsaEncryption), BIT STRING { SEQUENCE { n, e } } }
func RSAPublicKeyDER(modulus, exponent []byte) []byte {
	rsaKey := der.EncodeSequence(append(der.EncodeInteger(modulus), der.EncodeInteger(exponent)...))
	spki := append(der.RSAAlgorithmIdentifier(), der.EncodeBitString(rsaKey)...)
	return der.EncodeSequence(spki)
}

func rsaPublicKey(modulus, exponent []byte) (*rsa.PublicKey, error) {
	parsed, err := x509.ParsePKIXPublicKey(RSAPublicKeyDER(modulus, exponent))
	if err != nil {
		return nil, err
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("spki is not an rsa key")
	}
	return pub, nil
}

// UncompressedPoint devuelve 0x04 ‖ X ‖ Y con cada coordenada rellenada a 32 bytes.
func UncompressedPoint(x, y []byte) ([]byte, error) {
	if len(x) > p256FieldBytes || len(y) > p256FieldBytes {
		return nil, errors.New("coordinate longer than 32 bytes")
	}
	out := make([]byte, 1+2*p256FieldBytes)
	out[0] = 0x04
	copy(out[1+p256FieldBytes-len(x):1+p256FieldBytes], x)
	copy(out[1+2*p256FieldBytes-len(y):], y)
	return out, nil
}

func p256PublicKey(x, y []byte) (*ecdsa.PublicKey, error) {
	point, err := UncompressedPoint(x, y)
	if err != nil {
		return nil, err
	}
	// ecdh valida que el punto esté en la curva.
	if _, err := ecdh.P256().NewPublicKey(point); err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(point[1 : 1+p256FieldBytes]),
		Y:     new(big.Int).SetBytes(point[1+p256FieldBytes:]),
	}, nil
}

// ----- base64url -----

// EncodeBase64URL codifica sin padding (RFC 7515 §2).
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64URL acepta base64url sin padding; tolera padding sobrante.
func DecodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
