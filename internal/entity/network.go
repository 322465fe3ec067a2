package entity

import "github.com/guregu/null/v6"

// NetworkWithdrawInfo is the standardized per-chain deposit/withdraw metadata
// derived from live venue currency payloads. It is computed per request and
// never persisted.
type NetworkWithdrawInfo struct {
	Network        string     `json:"network"`
	WithdrawStatus bool       `json:"withdraw_status"`
	DepositStatus  bool       `json:"deposit_status"`
	MinWithdraw    null.Float `json:"min_withdraw"`
	MaxWithdraw    null.Float `json:"max_withdraw"`
	WithdrawFee    float64    `json:"withdraw_fee"`
	WithdrawMemo   bool       `json:"withdraw_memo"`
	ChainID        string     `json:"chain_id,omitempty"`
	Precision      int        `json:"precision"`
}
