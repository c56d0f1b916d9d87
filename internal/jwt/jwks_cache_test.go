package jwt

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/sigverify/internal/observability/logger"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

func TestKeyCache_FirstResolveFetches(t *testing.T) {
	t.Parallel()
	pub := &newECKey(t).PublicKey
	srv := newJWKSServer(t, jwksBody(t, map[string]any{"e1": pub}))
	c := NewKeyCache(srv.fetcher())

	require.Zero(t, c.Len())
	require.True(t, c.LastRefreshed().IsZero())

	d, err := c.Resolve(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, "e1", d.KeyID)
	require.Equal(t, int64(1), srv.hits.Load())
	require.Equal(t, 1, c.Len())

	// fresco: no vuelve a la red
	_, err = c.Resolve(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, int64(1), srv.hits.Load())
}

func TestKeyCache_StaleRefreshesExactlyOnce(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	f := &countingFetcher{descs: []KeyDescriptor{descriptorFor(t, "e1", &newECKey(t).PublicKey)}}
	c := NewKeyCache(f, WithClock(clock.Now))

	_, err := c.Resolve(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, int64(1), f.calls.Load())

	clock.Advance(DefaultKeyCacheTTL - time.Second)
	_, err = c.Resolve(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, int64(1), f.calls.Load())

	clock.Advance(2 * time.Second)
	d, err := c.Resolve(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, "e1", d.KeyID)
	require.Equal(t, int64(2), f.calls.Load())
	require.Equal(t, clock.Now(), c.LastRefreshed())

	_, err = c.Resolve(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, int64(2), f.calls.Load())
}

func TestKeyCache_MissingKeyRefreshesOnce(t *testing.T) {
	t.Parallel()
	f := &countingFetcher{descs: []KeyDescriptor{descriptorFor(t, "e1", &newECKey(t).PublicKey)}}
	c := NewKeyCache(f)

	_, err := c.Resolve(context.Background(), "e1")
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), "ghost")
	require.ErrorIs(t, err, sigerr.MissingKey)
	require.Equal(t, int64(2), f.calls.Load())
}

func TestKeyCache_RotationReplacesWholeSet(t *testing.T) {
	t.Parallel()
	e1 := descriptorFor(t, "e1", &newECKey(t).PublicKey)
	e2 := descriptorFor(t, "e2", &newECKey(t).PublicKey)
	f := &countingFetcher{descs: []KeyDescriptor{e1}}
	c := NewKeyCache(f)

	_, err := c.Resolve(context.Background(), "e1")
	require.NoError(t, err)

	f.descs = []KeyDescriptor{e2}
	d, err := c.Resolve(context.Background(), "e2")
	require.NoError(t, err)
	require.Equal(t, e2, d)
	require.Equal(t, 1, c.Len())

	// e1 ya no se publica
	_, err = c.Resolve(context.Background(), "e1")
	require.ErrorIs(t, err, sigerr.MissingKey)
}

func TestKeyCache_FetchFailureKeepsStaleEntries(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	e1 := descriptorFor(t, "e1", &newECKey(t).PublicKey)
	f := &countingFetcher{descs: []KeyDescriptor{e1}}
	c := NewKeyCache(f, WithClock(clock.Now), WithTTL(time.Minute))

	require.NoError(t, c.Refresh(context.Background()))
	refreshed := c.LastRefreshed()

	f.err = errors.New("connection refused")
	clock.Advance(2 * time.Minute)

	_, err := c.Resolve(context.Background(), "e1")
	require.ErrorIs(t, err, sigerr.JWKSFetchFailed)
	require.Equal(t, 1, c.Len())
	require.Equal(t, refreshed, c.LastRefreshed())

	// el endpoint vuelve: el siguiente resolve se recupera
	f.err = nil
	d, err := c.Resolve(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, e1, d)
}

func TestKeyCache_Non2xxIsFetchFailure(t *testing.T) {
	t.Parallel()
	srv := newJWKSServer(t, jwksBody(t, map[string]any{"e1": &newECKey(t).PublicKey}))
	c := NewKeyCache(srv.fetcher())
	require.NoError(t, c.Refresh(context.Background()))

	srv.status.Store(http.StatusServiceUnavailable)
	c.Invalidate()
	require.Equal(t, 1, c.Len())
	require.True(t, c.LastRefreshed().IsZero())

	_, err := c.Resolve(context.Background(), "e1")
	require.ErrorIs(t, err, sigerr.JWKSFetchFailed)
	require.Equal(t, 1, c.Len())
}

func TestKeyCache_MalformedJSONIsFetchFailure(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"not json":     `<html>oops</html>`,
		"no keys":      `{"issuer":"x"}`,
		"keys not arr": `{"keys":{"kid":"e1"}}`,
	} {
		body := body
		t.Run(name, func(t *testing.T) {
			srv := newJWKSServer(t, []byte(body))
			_, err := NewKeyCache(srv.fetcher()).Resolve(context.Background(), "e1")
			require.ErrorIs(t, err, sigerr.JWKSFetchFailed)
		})
	}
}

func TestKeyCache_CancelledContextIsFetchFailure(t *testing.T) {
	t.Parallel()
	srv := newJWKSServer(t, jwksBody(t, map[string]any{"e1": &newECKey(t).PublicKey}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKeyCache(srv.fetcher()).Resolve(ctx, "e1")
	require.ErrorIs(t, err, sigerr.JWKSFetchFailed)
}

func TestKeyCache_WrapsForeignFetcherErrors(t *testing.T) {
	t.Parallel()
	c := NewKeyCache(&countingFetcher{err: errors.New("boom")})

	err := c.Refresh(context.Background())
	require.ErrorIs(t, err, sigerr.JWKSFetchFailed)
	require.Contains(t, err.Error(), "boom")
}

// blockingFetcher retiene el fetch hasta que se cierre release.
type blockingFetcher struct {
	countingFetcher
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *blockingFetcher) Fetch(ctx context.Context) ([]KeyDescriptor, error) {
	f.once.Do(func() { close(f.started) })
	<-f.release
	return f.countingFetcher.Fetch(ctx)
}

func TestKeyCache_ConcurrentResolvesShareOneFetch(t *testing.T) {
	t.Parallel()
	f := &blockingFetcher{
		countingFetcher: countingFetcher{descs: []KeyDescriptor{descriptorFor(t, "e1", &newECKey(t).PublicKey)}},
		started:         make(chan struct{}),
		release:         make(chan struct{}),
	}
	c := NewKeyCache(f)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Resolve(context.Background(), "e1")
			errs <- err
		}()
	}

	<-f.started
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), f.calls.Load())
}

func TestKeyCache_WaiterHonoursOwnContext(t *testing.T) {
	t.Parallel()
	f := &blockingFetcher{
		countingFetcher: countingFetcher{descs: []KeyDescriptor{descriptorFor(t, "e1", &newECKey(t).PublicKey)}},
		started:         make(chan struct{}),
		release:         make(chan struct{}),
	}
	c := NewKeyCache(f)

	go func() { _, _ = c.Resolve(context.Background(), "e1") }()
	<-f.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Resolve(ctx, "e1")
	require.ErrorIs(t, err, sigerr.JWKSFetchFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(f.release)
}

// ctxFetcher bloquea hasta release o hasta que se cancele el ctx del fetch,
// como lo haría un GET real.
type ctxFetcher struct {
	countingFetcher
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *ctxFetcher) Fetch(ctx context.Context) ([]KeyDescriptor, error) {
	f.once.Do(func() { close(f.started) })
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.countingFetcher.Fetch(ctx)
}

func TestKeyCache_FirstCallerCancelDoesNotFailOthers(t *testing.T) {
	t.Parallel()
	f := &ctxFetcher{
		countingFetcher: countingFetcher{descs: []KeyDescriptor{descriptorFor(t, "e1", &newECKey(t).PublicKey)}},
		started:         make(chan struct{}),
		release:         make(chan struct{}),
	}
	c := NewKeyCache(f)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Resolve(firstCtx, "e1")
		firstErr <- err
	}()
	<-f.started

	secondErr := make(chan error, 1)
	go func() {
		_, err := c.Resolve(context.Background(), "e1")
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	err := <-firstErr
	require.ErrorIs(t, err, sigerr.JWKSFetchFailed)
	require.ErrorIs(t, err, context.Canceled)

	close(f.release)
	require.NoError(t, <-secondErr)
	require.Equal(t, int64(1), f.calls.Load())
	require.Equal(t, 1, c.Len())
}

func TestKeyCache_SharedFetchIsBounded(t *testing.T) {
	t.Parallel()
	f := &ctxFetcher{started: make(chan struct{}), release: make(chan struct{})}
	c := NewKeyCache(f, WithFetchTimeout(20*time.Millisecond))

	_, err := c.Resolve(context.Background(), "e1")
	require.ErrorIs(t, err, sigerr.JWKSFetchFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseKeySet_SkipsKeysWithoutKid(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))

	descs, err := ParseKeySet(ctx, []byte(`{"keys":[
		{"kty":"RSA","n":"AQAB","e":"AQAB"},
		{"kty":"EC","kid":"e1","crv":"P-256","x":"AQ","y":"Ag"},
		{"kty":"EC","kid":"bad","crv":"P-256","x":"***","y":"Ag"}
	]}`))
	require.NoError(t, err)
	require.Len(t, descs, 2)
	require.Equal(t, "e1", descs[0].KeyID)
	require.Equal(t, []byte{0x01}, descs[0].X)

	// base64 roto sólo afecta a su kid
	require.Equal(t, "bad", descs[1].KeyID)
	require.Nil(t, descs[1].X)
	_, err = BuildPublicKey(descs[1], ES256)
	require.ErrorIs(t, err, sigerr.DecodingFailed)

	warned := logs.FilterMessage("jwks key has undecodable fields").All()
	require.Len(t, warned, 1)
	require.Equal(t, "bad", warned[0].ContextMap()["kid"])
}
