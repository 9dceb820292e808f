package solana

// LogEvent is one logs-subscription notification for a watched program.
type LogEvent struct {
	Signature string
	Slot      int64
	Logs      []string
	// Err is non-nil when the transaction itself failed on chain.
	Err interface{}
}
