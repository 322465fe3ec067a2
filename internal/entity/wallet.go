package entity

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type WalletType string

const (
	WalletTypeFiat    WalletType = "FIAT"
	WalletTypeSpot    WalletType = "SPOT"
	WalletTypeEco     WalletType = "ECO"
	WalletTypeFutures WalletType = "FUTURES"
	WalletTypeForex   WalletType = "FOREX"
	WalletTypeStock   WalletType = "STOCK"
	WalletTypeIndex   WalletType = "INDEX"
)

// AllWalletTypes is the fixed set of asset-class buckets a snapshot reports.
var AllWalletTypes = []WalletType{
	WalletTypeFiat,
	WalletTypeSpot,
	WalletTypeEco,
	WalletTypeFutures,
	WalletTypeForex,
	WalletTypeStock,
	WalletTypeIndex,
}

func ValidWalletType(t WalletType) bool {
	for _, candidate := range AllWalletTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

type Wallet struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Type      WalletType      `db:"type"`
	Currency  string          `db:"currency"`
	Balance   decimal.Decimal `db:"balance"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (w Wallet) TableName() string {
	return "wallets"
}

// PnlBalances maps each wallet type to its USD-equivalent total.
type PnlBalances map[WalletType]decimal.Decimal

func (b PnlBalances) Value() (driver.Value, error) {
	return json.Marshal(b)
}

func (b *PnlBalances) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	case nil:
		*b = PnlBalances{}
		return nil
	default:
		return errors.New("unsupported pnl balances column type")
	}
}

// Total sums all wallet-type buckets.
func (b PnlBalances) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b {
		total = total.Add(v)
	}
	return total
}

// WalletPnl is one per-user per-day valuation snapshot. CreatedAt is always
// truncated to UTC midnight; (user_id, created_at) is unique.
type WalletPnl struct {
	ID        string      `db:"id"`
	UserID    string      `db:"user_id"`
	Balances  PnlBalances `db:"balances"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (p WalletPnl) TableName() string {
	return "wallet_pnls"
}
