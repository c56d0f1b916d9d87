package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/dropDatabas3/sigverify/internal/observability/logger"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// JWK es un JSON Web Key tal como lo publica el endpoint (RFC 7517).
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
	Crv string `json:"crv,omitempty"` // EC
	X   string `json:"x,omitempty"`   // EC, base64url
	Y   string `json:"y,omitempty"`   // EC, base64url
	N   string `json:"n,omitempty"`   // RSA, base64url
	E   string `json:"e,omitempty"`   // RSA, base64url
}

// JWKS es el documento completo del endpoint.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Descriptor decodifica los campos base64url del JWK.
// Un campo ausente queda nil. Uno presente pero inválido también queda nil y se
// reporta como decoding_failed; el descriptor parcial se devuelve igual para que
// BuildPublicKey falle sólo para ese kid.
func (j JWK) Descriptor() (KeyDescriptor, error) {
	var firstErr error
	d := KeyDescriptor{
		KeyType:       j.Kty,
		KeyID:         j.Kid,
		AlgorithmHint: j.Alg,
		Use:           j.Use,
		Curve:         j.Crv,
	}
	fields := []struct {
		name string
		in   string
		out  *[]byte
	}{
		{"x", j.X, &d.X},
		{"y", j.Y, &d.Y},
		{"n", j.N, &d.Modulus},
		{"e", j.E, &d.Exponent},
	}
	for _, f := range fields {
		if f.in == "" {
			continue
		}
		b, err := DecodeBase64URL(f.in)
		if err != nil {
			if firstErr == nil {
				firstErr = sigerr.E(sigerr.DecodingFailed, "jwt.JWK.Descriptor", fmt.Errorf("kid %q field %s: %w", j.Kid, f.name, err))
			}
			continue
		}
		*f.out = b
	}
	return d, firstErr
}

// ParseKeySet decodifica un documento JWKS a descriptores.
// Claves sin kid se descartan: no pueden resolverse. JSON inválido o sin
// "keys" es error; un campo base64 roto en una clave no invalida el resto (se
// loguea y esa clave falla recién al construirla).
func ParseKeySet(ctx context.Context, body []byte) ([]KeyDescriptor, error) {
	var doc JWKS
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.Keys == nil {
		return nil, errors.New(`jwks without "keys"`)
	}
	out := make([]KeyDescriptor, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kid == "" {
			continue
		}
		d, err := k.Descriptor()
		if err != nil {
			logger.From(ctx).Warn("jwks key has undecodable fields",
				logger.Component("jwks"), logger.KeyID(k.Kid), logger.Err(err))
		}
		out = append(out, d)
	}
	return out, nil
}

// JWKFromPublicKey serializa una clave nativa (RSA o ECDSA P-256) como JWK.
func JWKFromPublicKey(kid string, pub any) (JWK, error) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return JWK{
			Kty: KeyTypeRSA,
			Kid: kid,
			Alg: string(RS256),
			Use: "sig",
			N:   EncodeBase64URL(k.N.Bytes()),
			E:   EncodeBase64URL(big.NewInt(int64(k.E)).Bytes()),
		}, nil
	case *ecdsa.PublicKey:
		if k.Curve != elliptic.P256() {
			return JWK{}, fmt.Errorf("unsupported curve %s", k.Curve.Params().Name)
		}
		x := make([]byte, p256FieldBytes)
		y := make([]byte, p256FieldBytes)
		k.X.FillBytes(x)
		k.Y.FillBytes(y)
		return JWK{
			Kty: KeyTypeEC,
			Kid: kid,
			Alg: string(ES256),
			Use: "sig",
			Crv: CurveP256,
			X:   EncodeBase64URL(x),
			Y:   EncodeBase64URL(y),
		}, nil
	}
	return JWK{}, fmt.Errorf("unsupported public key type %T", pub)
}

// MarshalKeySet construye el JSON de un JWKS a partir de claves nativas indexadas por kid.
func MarshalKeySet(keys map[string]any) ([]byte, error) {
	doc := JWKS{Keys: make([]JWK, 0, len(keys))}
	for kid, pub := range keys {
		j, err := JWKFromPublicKey(kid, pub)
		if err != nil {
			return nil, err
		}
		doc.Keys = append(doc.Keys, j)
	}
	return json.Marshal(doc)
}
