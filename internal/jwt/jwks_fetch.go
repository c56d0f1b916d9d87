package jwt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// maxJWKSBytes acota el cuerpo aceptado del endpoint de publicación.
const maxJWKSBytes = 1 << 20

// KeySetFetcher obtiene el set completo de claves publicadas.
type KeySetFetcher interface {
	Fetch(ctx context.Context) ([]KeyDescriptor, error)
}

// FetcherFunc adapta una función a KeySetFetcher.
type FetcherFunc func(ctx context.Context) ([]KeyDescriptor, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([]KeyDescriptor, error) { return f(ctx) }

// HTTPFetcher hace GET al endpoint JWKS.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPFetcher crea un fetcher con su propio http.Client (timeout > 0).
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Fetch descarga y parsea el JWKS. Cualquier falla (transporte, status no 2xx,
// cuerpo demasiado grande, JSON inválido, contexto cancelado) es jwks_fetch_failed.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]KeyDescriptor, error) {
	const op = "jwt.HTTPFetcher.Fetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, sigerr.E(sigerr.JWKSFetchFailed, op, err)
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, sigerr.E(sigerr.JWKSFetchFailed, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, sigerr.E(sigerr.JWKSFetchFailed, op, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes+1))
	if err != nil {
		return nil, sigerr.E(sigerr.JWKSFetchFailed, op, err)
	}
	if len(body) > maxJWKSBytes {
		return nil, sigerr.E(sigerr.JWKSFetchFailed, op, fmt.Errorf("body exceeds %d bytes", maxJWKSBytes))
	}

	keys, err := ParseKeySet(ctx, body)
	if err != nil {
		return nil, sigerr.E(sigerr.JWKSFetchFailed, op, err)
	}
	return keys, nil
}
