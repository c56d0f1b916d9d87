package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/sigverify/internal/claims"
	"github.com/dropDatabas3/sigverify/internal/pairing"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

func TestFromError_MapsKinds(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{sigerr.E(sigerr.InvalidTokenFormat, "jwt.Verify", nil), http.StatusBadRequest, "INVALID_TOKEN_FORMAT"},
		{sigerr.E(sigerr.DecodingFailed, "jwt.Verify", nil), http.StatusBadRequest, "DECODING_FAILED"},
		{sigerr.E(sigerr.UnsupportedAlgorithm, "jwt.Verify", nil), http.StatusUnauthorized, "UNSUPPORTED_ALGORITHM"},
		{sigerr.E(sigerr.MissingKey, "jwt.Verify", nil), http.StatusUnauthorized, "MISSING_KEY"},
		{sigerr.E(sigerr.SignatureInvalid, "jwt.Verify", nil), http.StatusUnauthorized, "SIGNATURE_INVALID"},
		{sigerr.E(sigerr.JWKSFetchFailed, "jwt.Fetch", context.Canceled), http.StatusServiceUnavailable, "JWKS_UNAVAILABLE"},
		{sigerr.E(sigerr.KeyCreationFailed, "jwt.BuildPublicKey", nil), http.StatusBadGateway, "KEY_CREATION_FAILED"},
		{sigerr.E(sigerr.SignatureParseFailed, "recovery.ParseCompact", nil), http.StatusBadRequest, "SIGNATURE_PARSE_FAILED"},
		{sigerr.E(sigerr.RecoveryFailed, "recovery.Recover", nil), http.StatusUnprocessableEntity, "RECOVERY_FAILED"},
		{fmt.Errorf("%w: exp", claims.ErrInvalidClaims), http.StatusUnauthorized, "CLAIMS_INVALID"},
		{pairing.ErrSessionNotFound, http.StatusNotFound, "PAIRING_NOT_FOUND"},
		{pairing.ErrSignerMismatch, http.StatusForbidden, "SIGNER_MISMATCH"},
		{fmt.Errorf("%w: %q", pairing.ErrInvalidAddress, "0x1"), http.StatusBadRequest, "INVALID_ADDRESS"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
	}
	for _, tc := range cases {
		got := FromError(tc.err)
		require.Equal(t, tc.status, got.HTTPStatus, tc.err.Error())
		require.Equal(t, tc.code, got.Code, tc.err.Error())
	}
}

func TestWithDetail_DoesNotMutateBase(t *testing.T) {
	t.Parallel()
	e := ErrBadRequest.WithDetail("token is required")
	require.Equal(t, "token is required", e.Detail)
	require.Empty(t, ErrBadRequest.Detail)
}

func TestWriteError_HidesCause(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	WriteError(rec, sigerr.E(sigerr.MissingKey, "jwt.KeyCache.Resolve", fmt.Errorf("kid k-secret")))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	raw := rec.Body.String()
	require.NotContains(t, raw, "k-secret")

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	require.Equal(t, "MISSING_KEY", body["code"])
}
