// Package wallet defines the signing capability the live execution
// engine delegates to. Key custody and decryption live behind this
// interface; the trading core never sees private material.
package wallet

import "context"

// Signer exposes the wallet's public identity and the ability to sign
// and broadcast a serialized transaction.
type Signer interface {
	// PublicKey returns the wallet's base58 public key.
	PublicKey() string

	// SignAndBroadcast signs tx and submits it, returning the
	// transaction signature.
	SignAndBroadcast(ctx context.Context, tx []byte) (string, error)
}
