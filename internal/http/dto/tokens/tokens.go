// Package tokens contiene los DTOs de verificación de tokens.
package tokens

// VerifyRequest es el body de POST /v1/tokens/verify. Si Token está vacío se
// usa el header Authorization: Bearer.
type VerifyRequest struct {
	Token string `json:"token"`
}

// HeaderDTO expone el header JOSE ya validado.
type HeaderDTO struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ,omitempty"`
}

type VerifyResponse struct {
	Valid  bool           `json:"valid"`
	Header HeaderDTO      `json:"header"`
	Claims map[string]any `json:"claims"`
}
