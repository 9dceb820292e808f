// Package idhash derives deterministic identifiers for trade records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-curve-sniper/internal/domain"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(mint|type|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(mint string, tradeType domain.TradeType, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", mint, string(tradeType), timestampMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
