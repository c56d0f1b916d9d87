package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/sigverify/internal/claims"
	"github.com/dropDatabas3/sigverify/internal/pairing"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

var kindErrors = map[sigerr.Kind]*AppError{
	sigerr.InvalidTokenFormat:   ErrInvalidTokenFormat,
	sigerr.DecodingFailed:       ErrDecodingFailed,
	sigerr.UnsupportedAlgorithm: ErrUnsupportedAlgorithm,
	sigerr.MissingKey:           ErrMissingKey,
	sigerr.SignatureInvalid:     ErrSignatureInvalid,
	sigerr.SignatureParseFailed: ErrSignatureParseFailed,
	sigerr.RecoveryFailed:       ErrRecoveryFailed,
	sigerr.KeyCreationFailed:    ErrKeyCreationFailed,
	sigerr.JWKSFetchFailed:      ErrJWKSUnavailable,
}

// FromError intenta convertir un error de otra capa en un AppError.
// Los kinds de sigerr y los sentinels de claims/pairing tienen su AppError propio;
// el resto termina como error interno conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	if k := sigerr.KindOf(err); k != "" {
		if base, ok := kindErrors[k]; ok {
			return base.WithCause(err)
		}
	}
	switch {
	case stderrors.Is(err, claims.ErrInvalidClaims):
		return ErrClaimsInvalid.WithCause(err).WithDetail(err.Error())
	case stderrors.Is(err, pairing.ErrSessionNotFound):
		return ErrPairingNotFound.WithCause(err)
	case stderrors.Is(err, pairing.ErrSignerMismatch):
		return ErrSignerMismatch.WithCause(err)
	case stderrors.Is(err, pairing.ErrInvalidAddress):
		return ErrInvalidAddress.WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return ErrServiceUnavailable.WithCause(err)
	}
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return ErrBodyTooLarge.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}
