// Package tokens contiene el controller de verificación de tokens.
package tokens

import (
	"context"
	"net/http"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/sigverify/internal/claims"
	dto "github.com/dropDatabas3/sigverify/internal/http/dto/tokens"
	"github.com/dropDatabas3/sigverify/internal/http/errors"
	"github.com/dropDatabas3/sigverify/internal/http/helpers"
	jwtx "github.com/dropDatabas3/sigverify/internal/jwt"
	"github.com/dropDatabas3/sigverify/internal/observability/logger"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// TokenVerifier es lo que el controller necesita de *jwt.Verifier.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*jwtx.VerifiedToken, error)
}

// TokensController maneja POST /v1/tokens/verify.
type TokensController struct {
	verifier TokenVerifier
	policy   *claims.Policy
}

// NewTokensController crea el controller. policy nil = sólo firma; los claims se
// devuelven sin validar.
func NewTokensController(v TokenVerifier, policy *claims.Policy) *TokensController {
	return &TokensController{verifier: v, policy: policy}
}

// Verify maneja POST /v1/tokens/verify
func (c *TokensController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokensController.Verify"))

	var token string
	if r.ContentLength != 0 {
		var req dto.VerifyRequest
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
		token = strings.TrimSpace(req.Token)
	}
	if token == "" {
		token = helpers.BearerToken(r)
	}
	if token == "" {
		errors.WriteError(w, errors.ErrMissingFields.WithDetail("token is required"))
		return
	}

	vt, err := c.verifier.VerifyToken(ctx, token)
	if err != nil {
		log.Debug("token rejected", logger.Kind(string(sigerr.KindOf(err))))
		errors.WriteError(w, err)
		return
	}

	var out map[string]any
	if c.policy != nil {
		var mc jwtv5.MapClaims
		mc, err = c.policy.ValidateToken(vt)
		out = mc
	} else {
		out, err = vt.Claims()
	}
	if err != nil {
		log.Debug("claims rejected", logger.Err(err))
		errors.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.VerifyResponse{
		Valid: true,
		Header: dto.HeaderDTO{
			Alg: string(vt.Header.Algorithm),
			Kid: vt.Header.KeyID,
			Typ: vt.Header.Type,
		},
		Claims: out,
	})
}
