package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Token string `json:"token"`
}

func jsonReq(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestReadJSON(t *testing.T) {
	t.Parallel()

	var p payload
	rec := httptest.NewRecorder()
	require.True(t, ReadJSON(rec, jsonReq(`{"token":"a.b.c"}`), &p))
	require.Equal(t, "a.b.c", p.Token)

	cases := map[string]struct {
		req    *http.Request
		status int
	}{
		"unknown field": {jsonReq(`{"tok":"x"}`), http.StatusBadRequest},
		"trailing data": {jsonReq(`{"token":"x"} {}`), http.StatusBadRequest},
		"empty body":    {jsonReq(``), http.StatusBadRequest},
		"not json":      {jsonReq(`token=x`), http.StatusBadRequest},
		"content type":  {httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), http.StatusUnsupportedMediaType},
	}
	for name, tc := range cases {
		rec := httptest.NewRecorder()
		require.False(t, ReadJSON(rec, tc.req, &payload{}), name)
		require.Equal(t, tc.status, rec.Code, name)
	}
}

func TestReadJSON_BodyTooLarge(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	req := jsonReq(`{"token":"` + strings.Repeat("a", 100) + `"}`)
	req.Body = http.MaxBytesReader(rec, req.Body, 16)
	require.False(t, ReadJSON(rec, req, &payload{}))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, BearerToken(r))
	r.Header.Set("Authorization", "Bearer  a.b.c ")
	require.Equal(t, "a.b.c", BearerToken(r))
	r.Header.Set("Authorization", "Basic Zm9v")
	require.Empty(t, BearerToken(r))
}
