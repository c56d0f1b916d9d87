package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func pemPublic(t *testing.T, pub any) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func TestParsePublicKeyPEM(t *testing.T) {
	t.Parallel()
	rsaKey := newRSAKey(t)
	ecKey := newECKey(t)

	got, err := ParsePublicKeyPEM(pemPublic(t, &rsaKey.PublicKey))
	require.NoError(t, err)
	require.True(t, rsaKey.PublicKey.Equal(got.(*rsa.PublicKey)))

	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&rsaKey.PublicKey)})
	got, err = ParsePublicKeyPEM(pkcs1)
	require.NoError(t, err)
	require.True(t, rsaKey.PublicKey.Equal(got.(*rsa.PublicKey)))

	got, err = ParsePublicKeyPEM(pemPublic(t, &ecKey.PublicKey))
	require.NoError(t, err)
	require.True(t, ecKey.PublicKey.Equal(got.(*ecdsa.PublicKey)))

	// el JWKS generado se puede volver a leer
	body, err := MarshalKeySet(map[string]any{"r1": &rsaKey.PublicKey, "e1": got})
	require.NoError(t, err)
	descs, err := ParseKeySet(context.Background(), body)
	require.NoError(t, err)
	require.Len(t, descs, 2)
}

func TestParsePublicKeyPEM_Rejects(t *testing.T) {
	t.Parallel()
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	_, err = ParsePublicKeyPEM(pemPublic(t, &p384.PublicKey))
	require.ErrorContains(t, err, "unsupported curve")

	_, err = ParsePublicKeyPEM([]byte("not pem"))
	require.Error(t, err)
}
