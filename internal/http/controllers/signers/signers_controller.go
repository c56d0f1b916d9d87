// Package signers contiene el controller de recuperación de firmantes secp256k1.
package signers

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"

	dto "github.com/dropDatabas3/sigverify/internal/http/dto/signers"
	"github.com/dropDatabas3/sigverify/internal/http/errors"
	"github.com/dropDatabas3/sigverify/internal/http/helpers"
	"github.com/dropDatabas3/sigverify/internal/observability/logger"
	"github.com/dropDatabas3/sigverify/internal/security/recovery"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// SignersController maneja POST /v1/signers/recover. No tiene estado.
type SignersController struct{}

func NewSignersController() *SignersController { return &SignersController{} }

// Recover maneja POST /v1/signers/recover
func (c *SignersController) Recover(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("SignersController.Recover"))

	var req dto.RecoverRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	sig, err := signatureFrom(req)
	if err != nil {
		errors.WriteError(w, err)
		return
	}

	var digest []byte
	switch {
	case len(req.Digest) > 0 && req.Message != nil:
		errors.WriteError(w, errors.ErrBadRequest.WithDetail("digest and message are mutually exclusive"))
		return
	case len(req.Digest) > 0:
		digest = req.Digest
	case req.Message != nil:
		digest = recovery.PersonalMessageHash([]byte(*req.Message))
	default:
		errors.WriteError(w, errors.ErrMissingFields.WithDetail("digest or message is required"))
		return
	}

	pub, err := recovery.RecoverPublicKey(sig, digest)
	if err != nil {
		log.Debug("recovery rejected", logger.Kind(string(sigerr.KindOf(err))))
		errors.WriteError(w, err)
		return
	}
	addr, err := recovery.AddressFromPublicKey(pub)
	if err != nil {
		errors.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.RecoverResponse{
		PublicKey: hexutil.Encode(pub),
		Address:   addr.Hex(),
	})
}

// signatureFrom arma la firma desde la forma compacta o desde r/s/v.
func signatureFrom(req dto.RecoverRequest) (recovery.Signature, error) {
	const op = "signers.Recover"
	if len(req.Signature) > 0 {
		if len(req.R) > 0 || len(req.S) > 0 || req.V != nil {
			return recovery.Signature{}, errors.ErrBadRequest.WithDetail("signature and r/s/v are mutually exclusive")
		}
		return recovery.ParseCompact(req.Signature)
	}
	if len(req.R) == 0 || len(req.S) == 0 || req.V == nil {
		return recovery.Signature{}, errors.ErrMissingFields.WithDetail("signature or r, s and v are required")
	}
	if *req.V > 0xff {
		return recovery.Signature{}, sigerr.E(sigerr.SignatureParseFailed, op, fmt.Errorf("v out of range: %d", *req.V))
	}
	return recovery.Signature{R: req.R, S: req.S, V: byte(*req.V)}, nil
}
