package jwt

import (
	"crypto/elliptic"
	"errors"
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ParsePublicKeyPEM lee una clave pública RSA o EC P-256 en PEM (PKIX, PKCS#1
// o certificado X.509). Lo usa el comando jwks para publicar claves locales.
func ParsePublicKeyPEM(b []byte) (any, error) {
	if rsaKey, err := jwtv5.ParseRSAPublicKeyFromPEM(b); err == nil {
		return rsaKey, nil
	}
	ecKey, err := jwtv5.ParseECPublicKeyFromPEM(b)
	if err != nil {
		if errors.Is(err, jwtv5.ErrKeyMustBePEMEncoded) {
			return nil, err
		}
		return nil, fmt.Errorf("pem: not an RSA or EC public key: %w", err)
	}
	if ecKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("pem: unsupported curve %s", ecKey.Curve.Params().Name)
	}
	return ecKey, nil
}
