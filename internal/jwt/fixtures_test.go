package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return k
}

func newECKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return k
}

// mint firma un token con golang-jwt (ES256 sale en forma raw r‖s).
func mint(t *testing.T, method jwtv5.SigningMethod, kid string, priv any) string {
	t.Helper()
	tk := jwtv5.NewWithClaims(method, jwtv5.MapClaims{
		"sub": "did:privy:user-1",
		"iss": "privy.io",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tk.Header["kid"] = kid
	s, err := tk.SignedString(priv)
	require.NoError(t, err)
	return s
}

// jwksBody serializa las claves públicas como documento JWKS.
func jwksBody(t *testing.T, keys map[string]any) []byte {
	t.Helper()
	b, err := MarshalKeySet(keys)
	require.NoError(t, err)
	return b
}

// jwksServer publica body y cuenta los GET recibidos.
type jwksServer struct {
	*httptest.Server
	hits   atomic.Int64
	body   atomic.Value // []byte
	status atomic.Int64
}

func newJWKSServer(t *testing.T, body []byte) *jwksServer {
	t.Helper()
	s := &jwksServer{}
	s.body.Store(body)
	s.status.Store(http.StatusOK)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(s.status.Load()))
		_, _ = w.Write(s.body.Load().([]byte))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) fetcher() *HTTPFetcher { return NewHTTPFetcher(s.URL, 5*time.Second) }

// countingFetcher devuelve descs fijos y cuenta las llamadas.
type countingFetcher struct {
	calls atomic.Int64
	descs []KeyDescriptor
	err   error
}

func (f *countingFetcher) Fetch(context.Context) ([]KeyDescriptor, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.descs, nil
}

// failingFetcher hace fallar el test si alguien intenta tocar la red.
func failingFetcher(t *testing.T) KeySetFetcher {
	return FetcherFunc(func(context.Context) ([]KeyDescriptor, error) {
		t.Errorf("key-publication endpoint must not be contacted")
		return nil, nil
	})
}

func descriptorFor(t *testing.T, kid string, pub any) KeyDescriptor {
	t.Helper()
	j, err := JWKFromPublicKey(kid, pub)
	require.NoError(t, err)
	d, err := j.Descriptor()
	require.NoError(t, err)
	return d
}

// fakeClock es un reloj manual para los tests de TTL.
type fakeClock struct{ now atomic.Int64 }

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.now.Store(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano())
	return c
}

func (c *fakeClock) Now() time.Time          { return time.Unix(0, c.now.Load()).UTC() }
func (c *fakeClock) Advance(d time.Duration) { c.now.Add(int64(d)) }

func segmentJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return EncodeBase64URL(b)
}
