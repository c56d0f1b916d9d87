// Package pairing implementa el handshake de vinculación de wallets: el servidor
// emite un challenge por sesión (topic) y la wallet lo firma con personal_sign;
// la sesión se confirma si el firmante recuperado es la dirección esperada.
package pairing

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/dropDatabas3/sigverify/internal/audit"
	"github.com/dropDatabas3/sigverify/internal/cache"
	"github.com/dropDatabas3/sigverify/internal/observability/logger"
	"github.com/dropDatabas3/sigverify/internal/security/recovery"
)

// DefaultSessionTTL es la vida de una sesión sin completar.
const DefaultSessionTTL = 5 * time.Minute

const keyPrefix = "pairing:"

var (
	ErrSessionNotFound = errors.New("pairing: session not found or expired")
	ErrSignerMismatch  = errors.New("pairing: signer does not match expected address")
	ErrInvalidAddress  = errors.New("pairing: invalid address")
)

// Session es una vinculación pendiente.
type Session struct {
	Topic     string         `json:"topic"`
	Address   common.Address `json:"address"`
	Challenge string         `json:"challenge"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Service guarda sesiones en un cache.Client (memory o redis).
type Service struct {
	store cache.Client
	ttl   time.Duration
	now   func() time.Time
	app   string
}

// Option configura el Service.
type Option func(*Service)

func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAppName cambia el nombre que aparece en el challenge.
func WithAppName(name string) Option {
	return func(s *Service) {
		if name = strings.TrimSpace(name); name != "" {
			s.app = name
		}
	}
}

func NewService(store cache.Client, opts ...Option) *Service {
	s := &Service{store: store, ttl: DefaultSessionTTL, now: time.Now, app: "sigverify"}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ParseAddress valida una dirección hex (con o sin 0x).
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// Begin crea una sesión para expected y devuelve el challenge a firmar.
func (s *Service) Begin(ctx context.Context, expected common.Address) (*Session, error) {
	if expected == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("pairing: nonce: %w", err)
	}

	now := s.now().UTC()
	sess := &Session{
		Topic:     uuid.NewString(),
		Address:   expected,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	sess.Challenge = s.challenge(sess, hex.EncodeToString(nonce))

	b, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, keyPrefix+sess.Topic, string(b), s.ttl); err != nil {
		return nil, fmt.Errorf("pairing: store session: %w", err)
	}
	audit.Log(ctx, audit.PairingStarted, logger.Topic(sess.Topic), logger.Address(expected.Hex()))
	return sess, nil
}

func (s *Service) challenge(sess *Session, nonce string) string {
	return fmt.Sprintf("%s wants you to link your wallet:\n%s\n\nTopic: %s\nNonce: %s\nIssued At: %s\nExpiration Time: %s",
		s.app,
		sess.Address.Hex(),
		sess.Topic,
		nonce,
		sess.CreatedAt.Format(time.RFC3339),
		sess.ExpiresAt.Format(time.RFC3339),
	)
}

// Get devuelve la sesión pendiente sin consumirla.
func (s *Service) Get(ctx context.Context, topic string) (*Session, error) {
	raw, err := s.store.Get(ctx, keyPrefix+topic)
	return s.decode(raw, err)
}

// Complete consume la sesión (un solo intento, exitoso o no) y verifica que la
// firma del challenge provenga de la dirección esperada.
func (s *Service) Complete(ctx context.Context, topic string, sig recovery.Signature) (*Session, error) {
	log := logger.From(ctx).With(logger.Component("pairing"), logger.Topic(topic))

	raw, err := s.store.Take(ctx, keyPrefix+topic)
	sess, err := s.decode(raw, err)
	if err != nil {
		return nil, err
	}

	signer, err := recovery.RecoverPersonalSigner(sig, []byte(sess.Challenge))
	if err != nil {
		log.Debug("pairing signature unusable", logger.Err(err))
		return nil, err
	}
	if subtle.ConstantTimeCompare(signer.Bytes(), sess.Address.Bytes()) != 1 {
		audit.Log(ctx, audit.PairingRejected, logger.Topic(topic), logger.Address(signer.Hex()))
		return nil, ErrSignerMismatch
	}
	audit.Log(ctx, audit.PairingCompleted, logger.Topic(topic), logger.Address(signer.Hex()))
	return sess, nil
}

func (s *Service) decode(raw string, err error) (*Session, error) {
	if cache.IsNotFound(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pairing: load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("pairing: corrupt session: %w", err)
	}
	if !s.now().Before(sess.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}
