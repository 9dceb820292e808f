// Package discovery finds newly launched tokens from three independent
// sources (webhook push, aggregator polling, log streaming) and funnels
// them through one dedup-and-dispatch step.
package discovery

// Instruction is one instruction inside a pushed transaction.
type Instruction struct {
	ProgramID string   `json:"programId"`
	Accounts  []string `json:"accounts"`
}

// TransactionMeta carries the balance changes of a transaction.
type TransactionMeta struct {
	PreBalances  []int64 `json:"preBalances"`
	PostBalances []int64 `json:"postBalances"`
}

// TransactionRecord is one transaction in a webhook push payload.
type TransactionRecord struct {
	Signature    string           `json:"signature"`
	Timestamp    int64            `json:"timestamp"`
	Slot         int64            `json:"slot"`
	Accounts     []string         `json:"accounts"`
	Instructions []Instruction    `json:"instructions"`
	Meta         *TransactionMeta `json:"meta,omitempty"`
}

// PairToken identifies the base token of an aggregator pair.
type PairToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// PairLiquidity is the reported pair liquidity.
type PairLiquidity struct {
	USD float64 `json:"usd"`
}

// PairRecord is one market pair in an aggregator poll response.
type PairRecord struct {
	BaseToken     PairToken     `json:"baseToken"`
	PairCreatedAt string        `json:"pairCreatedAt"`
	Liquidity     PairLiquidity `json:"liquidity"`
}

// pairsResponse is the aggregator response envelope.
type pairsResponse struct {
	Pairs []PairRecord `json:"pairs"`
}
