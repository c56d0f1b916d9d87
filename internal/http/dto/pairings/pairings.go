// Package pairings contiene los DTOs del handshake de vinculación de wallets.
package pairings

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type BeginRequest struct {
	Address string `json:"address"`
}

type SessionResponse struct {
	Topic     string    `json:"topic"`
	Address   string    `json:"address"`
	Challenge string    `json:"challenge"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CompleteRequest lleva la firma personal_sign del challenge (65 bytes hex).
type CompleteRequest struct {
	Signature hexutil.Bytes `json:"signature"`
}

type CompleteResponse struct {
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Paired  bool   `json:"paired"`
}
