// Package claims valida las claims estándar (exp, nbf, iat, iss, aud) de un token
// cuya firma ya fue verificada. Es una capa opcional: jwt.Verifier sólo garantiza
// autenticidad, nunca vigencia ni destinatario.
package claims

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	jwtx "github.com/dropDatabas3/sigverify/internal/jwt"
)

// ErrInvalidClaims envuelve cualquier rechazo de la política.
var ErrInvalidClaims = errors.New("invalid_claims")

// Policy define qué claims se exigen. El zero value sólo controla exp/nbf/iat
// cuando están presentes.
type Policy struct {
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireExpiry bool

	// Now permite fijar el reloj en tests.
	Now func() time.Time
}

func (p Policy) validator() *jwtv5.Validator {
	opts := []jwtv5.ParserOption{jwtv5.WithIssuedAt()}
	if p.Leeway > 0 {
		opts = append(opts, jwtv5.WithLeeway(p.Leeway))
	}
	if p.Issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(p.Issuer))
	}
	if p.Audience != "" {
		opts = append(opts, jwtv5.WithAudience(p.Audience))
	}
	if p.RequireExpiry {
		opts = append(opts, jwtv5.WithExpirationRequired())
	}
	if p.Now != nil {
		opts = append(opts, jwtv5.WithTimeFunc(p.Now))
	}
	return jwtv5.NewValidator(opts...)
}

// Validate decodifica el payload y aplica la política.
func (p Policy) Validate(payload []byte) (jwtv5.MapClaims, error) {
	var mc jwtv5.MapClaims
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&mc); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrInvalidClaims, err)
	}
	if mc == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrInvalidClaims)
	}
	if err := p.validator().Validate(mc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidClaims, err)
	}
	return mc, nil
}

// ValidateToken aplica la política sobre un token ya verificado.
func (p Policy) ValidateToken(vt *jwtx.VerifiedToken) (jwtv5.MapClaims, error) {
	if vt == nil {
		return nil, fmt.Errorf("%w: nil token", ErrInvalidClaims)
	}
	return p.Validate(vt.Payload)
}

// Enabled indica si la política exige algo más allá de los chequeos temporales.
func (p Policy) Enabled() bool {
	return p.Issuer != "" || p.Audience != "" || p.RequireExpiry
}
