package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known sentinel addresses.
const (
	SystemProgramID = "11111111111111111111111111111111"
	WSOLMint        = "So11111111111111111111111111111111111111112"
)

// DecodeAddress decodes a base58 address and verifies it is a 32-byte
// public key.
func DecodeAddress(addr string) ([]byte, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("decode address %q: %w", addr, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("address %q: expected 32 bytes, got %d", addr, len(raw))
	}
	return raw, nil
}

// ValidAddress reports whether addr is a well-formed base58 public key.
func ValidAddress(addr string) bool {
	_, err := DecodeAddress(addr)
	return err == nil
}

// IsOnCurve reports whether the address is a valid ed25519 curve point.
// Wallet keys are on the curve; program-derived addresses are not, so
// this distinguishes a live authority wallet from a PDA sentinel.
func IsOnCurve(addr string) bool {
	raw, err := DecodeAddress(addr)
	if err != nil {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
