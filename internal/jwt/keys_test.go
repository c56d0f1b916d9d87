package jwt

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Algorithm{"RS256": RS256, "rs256": RS256, "Es256": ES256} {
		got, err := ParseAlgorithm(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}
	for _, in := range []string{"", "none", "HS256", "EdDSA", "ES384", "PS256"} {
		_, err := ParseAlgorithm(in)
		require.True(t, errors.Is(err, sigerr.UnsupportedAlgorithm), "alg %q: %v", in, err)
	}
}

func TestRSAPublicKeyDER_MatchesX509(t *testing.T) {
	t.Parallel()
	priv := newRSAKey(t)

	want, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	d := descriptorFor(t, "r1", &priv.PublicKey)
	require.Equal(t, want, RSAPublicKeyDER(d.Modulus, d.Exponent))
}

func TestBuildPublicKey_RSA(t *testing.T) {
	t.Parallel()
	priv := newRSAKey(t)

	h, err := BuildPublicKey(descriptorFor(t, "r1", &priv.PublicKey), RS256)
	require.NoError(t, err)
	require.Equal(t, "r1", h.KeyID())
	require.Equal(t, RS256, h.Algorithm())
	pub, ok := h.Key().(*rsa.PublicKey)
	require.True(t, ok)
	require.True(t, priv.PublicKey.Equal(pub))
}

func TestBuildPublicKey_EC(t *testing.T) {
	t.Parallel()
	priv := newECKey(t)

	h, err := BuildPublicKey(descriptorFor(t, "e1", &priv.PublicKey), ES256)
	require.NoError(t, err)
	pub, ok := h.Key().(*ecdsa.PublicKey)
	require.True(t, ok)
	require.True(t, priv.PublicKey.Equal(pub))
}

func TestUncompressedPoint_PadsCoordinates(t *testing.T) {
	t.Parallel()

	point, err := UncompressedPoint([]byte{0x01}, []byte{0x02, 0x03})
	require.NoError(t, err)
	require.Len(t, point, 65)
	require.Equal(t, byte(0x04), point[0])
	require.Equal(t, byte(0x01), point[32])
	require.Equal(t, []byte{0x02, 0x03}, point[63:])
	for _, b := range point[1:32] {
		require.Zero(t, b)
	}

	_, err = UncompressedPoint(make([]byte, 33), nil)
	require.Error(t, err)
}

func TestBuildPublicKey_TrimmedCoordinates(t *testing.T) {
	t.Parallel()
	priv := newECKey(t)
	d := descriptorFor(t, "e1", &priv.PublicKey)

	// Un emisor que recorta ceros a la izquierda sigue siendo válido.
	d.X = trimLeadingZeros(d.X)
	d.Y = trimLeadingZeros(d.Y)
	h, err := BuildPublicKey(d, ES256)
	require.NoError(t, err)
	require.True(t, priv.PublicKey.Equal(h.Key()))
}

func TestBuildPublicKey_Errors(t *testing.T) {
	t.Parallel()
	rsaDesc := descriptorFor(t, "r1", &newRSAKey(t).PublicKey)
	ecDesc := descriptorFor(t, "e1", &newECKey(t).PublicKey)

	noModulus := rsaDesc
	noModulus.Modulus = nil
	noY := ecDesc
	noY.Y = nil
	otherCurve := ecDesc
	otherCurve.Curve = "P-384"
	offCurve := ecDesc
	offCurve.Y = append([]byte(nil), ecDesc.Y...)
	offCurve.Y[31] ^= 0x01
	badExponent := rsaDesc
	badExponent.Exponent = []byte{0x00}
	longX := ecDesc
	longX.X = make([]byte, 33)

	cases := []struct {
		name string
		desc KeyDescriptor
		alg  Algorithm
		want sigerr.Kind
	}{
		{"es256 over rsa key", rsaDesc, ES256, sigerr.UnsupportedAlgorithm},
		{"rs256 over ec key", ecDesc, RS256, sigerr.UnsupportedAlgorithm},
		{"wrong curve", otherCurve, ES256, sigerr.UnsupportedAlgorithm},
		{"mismatch wins over missing fields", KeyDescriptor{KeyType: KeyTypeRSA}, ES256, sigerr.UnsupportedAlgorithm},
		{"rsa without modulus", noModulus, RS256, sigerr.DecodingFailed},
		{"ec without y", noY, ES256, sigerr.DecodingFailed},
		{"point not on curve", offCurve, ES256, sigerr.KeyCreationFailed},
		{"coordinate too long", longX, ES256, sigerr.KeyCreationFailed},
		{"zero exponent", badExponent, RS256, sigerr.KeyCreationFailed},
		{"unknown alg", rsaDesc, Algorithm("HS256"), sigerr.UnsupportedAlgorithm},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildPublicKey(tc.desc, tc.alg)
			require.Error(t, err)
			require.Equal(t, tc.want, sigerr.KindOf(err), "%v", err)
		})
	}
}

func TestDecodeBase64URL(t *testing.T) {
	t.Parallel()

	b, err := DecodeBase64URL("AQAB")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x00, 0x01}, b)

	b, err = DecodeBase64URL("_-8")
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xef}, b)

	b, err = DecodeBase64URL("_-8=")
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xef}, b)

	_, err = DecodeBase64URL("a+b/")
	require.Error(t, err)
}

func trimLeadingZeros(b []byte) []byte {
	for len(b) > 1 && b[0] == 0 {
		b = b[1:]
	}
	return b
}
