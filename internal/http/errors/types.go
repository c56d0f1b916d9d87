package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, para logs; no se expone al cliente
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// Wrap crea un AppError envolviendo un error existente
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}

// WithDetail agrega detalles adicionales al error.
// Devuelve una COPIA del error para no mutar las variables globales base
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega el error original (causa)
// Devuelve una COPIA del error
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

// 400 Bad Request

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos en la solicitud.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidParameter = &AppError{
		Code:       "INVALID_PARAMETER",
		Message:    "Uno de los parámetros de la URL o Query String es inválido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrBodyTooLarge = &AppError{
		Code:       "BODY_TOO_LARGE",
		Message:    "El cuerpo de la solicitud excede el tamaño máximo permitido.",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}

	ErrUnsupportedMediaType = &AppError{
		Code:       "UNSUPPORTED_MEDIA_TYPE",
		Message:    "Se requiere Content-Type: application/json.",
		HTTPStatus: http.StatusUnsupportedMediaType,
	}
)

// Token / firma

var (
	ErrInvalidTokenFormat = &AppError{
		Code:       "INVALID_TOKEN_FORMAT",
		Message:    "El token no tiene el formato header.payload.signature.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrDecodingFailed = &AppError{
		Code:       "DECODING_FAILED",
		Message:    "No se pudo decodificar un segmento del token o de la firma.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnsupportedAlgorithm = &AppError{
		Code:       "UNSUPPORTED_ALGORITHM",
		Message:    "El algoritmo del token no está soportado.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrMissingKey = &AppError{
		Code:       "MISSING_KEY",
		Message:    "No hay una clave publicada para el kid del token.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrSignatureInvalid = &AppError{
		Code:       "SIGNATURE_INVALID",
		Message:    "La firma del token no es válida.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrClaimsInvalid = &AppError{
		Code:       "CLAIMS_INVALID",
		Message:    "Los claims del token no cumplen la política configurada.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrSignatureParseFailed = &AppError{
		Code:       "SIGNATURE_PARSE_FAILED",
		Message:    "La firma no tiene un formato r/s/v válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrRecoveryFailed = &AppError{
		Code:       "RECOVERY_FAILED",
		Message:    "No se pudo recuperar la clave pública del firmante.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrKeyCreationFailed = &AppError{
		Code:       "KEY_CREATION_FAILED",
		Message:    "La clave publicada por el emisor es inválida.",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrJWKSUnavailable = &AppError{
		Code:       "JWKS_UNAVAILABLE",
		Message:    "El endpoint de claves del emisor no está disponible.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)

// Pairing

var (
	ErrPairingNotFound = &AppError{
		Code:       "PAIRING_NOT_FOUND",
		Message:    "La sesión de vinculación no existe o expiró.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrSignerMismatch = &AppError{
		Code:       "SIGNER_MISMATCH",
		Message:    "La firma no corresponde a la dirección esperada.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrInvalidAddress = &AppError{
		Code:       "INVALID_ADDRESS",
		Message:    "La dirección no es una dirección hex de 20 bytes.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// Otros

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no fue encontrado.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "El método HTTP no está permitido para este recurso.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Ha excedido el límite de solicitudes. Intente más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "El servicio no está disponible temporalmente.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error inesperado en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
