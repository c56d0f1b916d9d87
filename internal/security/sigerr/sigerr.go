// Package sigerr define la taxonomía de errores de verificación de firmas y
// recuperación de claves públicas.
//
// Cada falla de los cores se devuelve como *Error con un Kind estable, de modo que
// los callers pueden discriminar con errors.Is:
//
//	if errors.Is(err, sigerr.MissingKey) { ... }
package sigerr

import (
	"errors"
	"fmt"
)

// Kind identifica la categoría de una falla. Implementa error para poder usarse
// como target de errors.Is.
type Kind string

const (
	InvalidTokenFormat   Kind = "invalid_token_format"
	UnsupportedAlgorithm Kind = "unsupported_algorithm"
	MissingKey           Kind = "missing_key"
	SignatureInvalid     Kind = "signature_invalid"
	KeyCreationFailed    Kind = "key_creation_failed"
	JWKSFetchFailed      Kind = "jwks_fetch_failed"
	DecodingFailed       Kind = "decoding_failed"
	SignatureParseFailed Kind = "signature_parse_failed"
	RecoveryFailed       Kind = "recovery_failed"
)

func (k Kind) Error() string { return string(k) }

// Error es el error tipado que devuelven los cores.
type Error struct {
	Kind Kind
	Op   string // operación que falló, ej: "jwt.Verify"
	Err  error  // causa original (opcional)
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matchea contra un Kind (errors.Is(err, sigerr.DecodingFailed)).
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// E construye un *Error. cause puede ser nil.
func E(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// KindOf devuelve el Kind del primer *Error en la cadena, o "" si no hay ninguno.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}
