package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/sigverify/internal/metrics"
	"github.com/dropDatabas3/sigverify/internal/observability/logger"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// KeyResolver resuelve un kid a su descriptor publicado. *KeyCache lo implementa.
type KeyResolver interface {
	Resolve(ctx context.Context, kid string) (KeyDescriptor, error)
}

// TokenHeader es el header JOSE de un token compacto.
type TokenHeader struct {
	Algorithm Algorithm `json:"alg"`
	KeyID     string    `json:"kid"`
	Type      string    `json:"typ,omitempty"`
}

// VerifiedToken es el resultado de una verificación exitosa. El payload no se
// interpreta: las claims son responsabilidad de otra capa.
type VerifiedToken struct {
	Header  TokenHeader
	Payload []byte
}

// Claims decodifica el payload como un objeto JSON.
func (t *VerifiedToken) Claims() (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(t.Payload, &out); err != nil {
		return nil, sigerr.E(sigerr.DecodingFailed, "jwt.VerifiedToken.Claims", err)
	}
	return out, nil
}

// Verifier verifica tokens compactos RS256/ES256 contra el set de claves publicado.
type Verifier struct {
	keys KeyResolver
}

// VerifierOption configura un Verifier.
type VerifierOption func(*Verifier)

// NewVerifier crea un Verifier dueño de su resolver de claves (normalmente un
// *KeyCache por dominio de confianza).
func NewVerifier(keys KeyResolver, opts ...VerifierOption) *Verifier {
	v := &Verifier{keys: keys}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify devuelve nil sólo si formato, clave y firma son válidos.
func (v *Verifier) Verify(ctx context.Context, token string) error {
	_, err := v.VerifyToken(ctx, token)
	return err
}

// VerifyToken verifica y devuelve header y payload decodificados.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (vt *VerifiedToken, err error) {
	alg := "unknown"
	defer func() {
		kind := string(sigerr.KindOf(err))
		if err != nil && kind == "" {
			kind = "error"
		}
		metrics.TokenVerifications.WithLabelValues(alg, metrics.Result(kind)).Inc()
		if err != nil {
			logger.From(ctx).Debug("token rejected", logger.Alg(alg), logger.Kind(kind), logger.Err(err))
		}
	}()

	p, err := splitToken(token)
	if err != nil {
		return nil, err
	}
	hdr, err := decodeHeader(p.header)
	if err != nil {
		return nil, err
	}
	alg = string(hdr.Algorithm)

	sig, err := DecodeBase64URL(p.signature)
	if err != nil {
		return nil, sigerr.E(sigerr.DecodingFailed, "jwt.Verify", fmt.Errorf("signature segment: %w", err))
	}

	desc, err := v.keys.Resolve(ctx, hdr.KeyID)
	if err != nil {
		return nil, err
	}
	key, err := BuildPublicKey(desc, hdr.Algorithm)
	if err != nil {
		return nil, err
	}
	if err := verifySignature(key, p.signingInput(), sig); err != nil {
		return nil, err
	}
	payload, err := DecodeBase64URL(p.payload)
	if err != nil {
		return nil, sigerr.E(sigerr.DecodingFailed, "jwt.Verify", fmt.Errorf("payload segment: %w", err))
	}
	return &VerifiedToken{Header: hdr, Payload: payload}, nil
}

type compactParts struct {
	header, payload, signature string
}

func (p compactParts) signingInput() string { return p.header + "." + p.payload }

// splitToken exige exactamente tres segmentos no vacíos.
func splitToken(token string) (compactParts, error) {
	const op = "jwt.splitToken"
	seg := strings.Split(token, ".")
	if len(seg) != 3 {
		return compactParts{}, sigerr.E(sigerr.InvalidTokenFormat, op, fmt.Errorf("expected 3 segments, got %d", len(seg)))
	}
	for i, s := range seg {
		if s == "" {
			return compactParts{}, sigerr.E(sigerr.InvalidTokenFormat, op, fmt.Errorf("segment %d is empty", i))
		}
	}
	return compactParts{header: seg[0], payload: seg[1], signature: seg[2]}, nil
}

// decodeHeader decodifica el header y valida el alg antes de cualquier acceso a red.
func decodeHeader(seg string) (TokenHeader, error) {
	const op = "jwt.decodeHeader"
	raw, err := DecodeBase64URL(seg)
	if err != nil {
		return TokenHeader{}, sigerr.E(sigerr.DecodingFailed, op, err)
	}
	var h struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
		Typ string `json:"typ"`
	}
	if err := json.Unmarshal(raw, &h); err != nil {
		return TokenHeader{}, sigerr.E(sigerr.DecodingFailed, op, err)
	}
	alg, err := ParseAlgorithm(h.Alg)
	if err != nil {
		return TokenHeader{}, err
	}
	return TokenHeader{Algorithm: alg, KeyID: h.Kid, Type: h.Typ}, nil
}

// verifySignature invoca la primitiva nativa. Cualquier resultado negativo es
// signature_invalid, salvo una firma ES256 de largo incorrecto (decoding_failed).
func verifySignature(key *PublicKeyHandle, signingInput string, sig []byte) error {
	const op = "jwt.verifySignature"

	switch key.Algorithm() {
	case RS256:
		if err := jwtv5.SigningMethodRS256.Verify(signingInput, sig, key.Key()); err != nil {
			return sigerr.E(sigerr.SignatureInvalid, op, err)
		}
		return nil

	case ES256:
		derSig, err := NormalizeES256Signature(sig)
		if err != nil {
			return err
		}
		// crypto/ecdsa rechaza INTEGER no minimales en DER y rawToDer conserva los
		// ceros a la izquierda; por eso la primitiva recibe r y s ya decodificados.
		raw, err := derSig.Raw()
		if err != nil {
			return err
		}
		pub, ok := key.Key().(*ecdsa.PublicKey)
		if !ok {
			return sigerr.E(sigerr.SignatureInvalid, op, errors.New("key is not ecdsa"))
		}
		digest := sha256.Sum256([]byte(signingInput))
		r := new(big.Int).SetBytes(raw.R())
		s := new(big.Int).SetBytes(raw.S())
		if !ecdsa.Verify(pub, digest[:], r, s) {
			return sigerr.E(sigerr.SignatureInvalid, op, nil)
		}
		return nil
	}
	return sigerr.E(sigerr.UnsupportedAlgorithm, op, errors.New(string(key.Algorithm())))
}
