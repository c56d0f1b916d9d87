// Package pairings contiene el controller del handshake de vinculación de wallets.
package pairings

import (
	"context"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/sigverify/internal/http/dto/pairings"
	"github.com/dropDatabas3/sigverify/internal/http/errors"
	"github.com/dropDatabas3/sigverify/internal/http/helpers"
	"github.com/dropDatabas3/sigverify/internal/metrics"
	"github.com/dropDatabas3/sigverify/internal/observability/logger"
	"github.com/dropDatabas3/sigverify/internal/pairing"
	"github.com/dropDatabas3/sigverify/internal/security/recovery"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// PairingService es lo que el controller usa de *pairing.Service.
type PairingService interface {
	Begin(ctx context.Context, expected common.Address) (*pairing.Session, error)
	Get(ctx context.Context, topic string) (*pairing.Session, error)
	Complete(ctx context.Context, topic string, sig recovery.Signature) (*pairing.Session, error)
}

type PairingsController struct {
	svc PairingService
}

func NewPairingsController(svc PairingService) *PairingsController {
	return &PairingsController{svc: svc}
}

func sessionDTO(s *pairing.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Topic:     s.Topic,
		Address:   s.Address.Hex(),
		Challenge: s.Challenge,
		ExpiresAt: s.ExpiresAt,
	}
}

// outcome es el label de métricas: ok, el kind de sigerr o "rejected".
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := sigerr.KindOf(err); k != "" {
		return string(k)
	}
	return "rejected"
}

// Begin maneja POST /v1/pairings
func (c *PairingsController) Begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.BeginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	addr, err := pairing.ParseAddress(req.Address)
	if err != nil {
		errors.WriteError(w, err)
		return
	}

	sess, err := c.svc.Begin(ctx, addr)
	metrics.PairingSessions.WithLabelValues("begin", outcome(err)).Inc()
	if err != nil {
		logger.From(ctx).Error("pairing begin failed", logger.Op("PairingsController.Begin"), logger.Err(err))
		errors.WriteError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/pairings/"+sess.Topic)
	helpers.WriteJSON(w, http.StatusCreated, sessionDTO(sess))
}

// Get maneja GET /v1/pairings/{topic}
func (c *PairingsController) Get(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(chi.URLParam(r, "topic"))
	sess, err := c.svc.Get(r.Context(), topic)
	if err != nil {
		errors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, sessionDTO(sess))
}

// Complete maneja POST /v1/pairings/{topic}/complete
func (c *PairingsController) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topic := strings.TrimSpace(chi.URLParam(r, "topic"))

	var req dto.CompleteRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	sig, err := recovery.ParseCompact(req.Signature)
	if err != nil {
		errors.WriteError(w, err)
		return
	}

	sess, err := c.svc.Complete(ctx, topic, sig)
	metrics.PairingSessions.WithLabelValues("complete", outcome(err)).Inc()
	if err != nil {
		errors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.CompleteResponse{
		Topic:   sess.Topic,
		Address: sess.Address.Hex(),
		Paired:  true,
	})
}
