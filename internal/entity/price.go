package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the fiat reference price table, USD-denominated.
type Currency struct {
	ID        string          `db:"id"`
	Code      string          `db:"code"`
	Price     decimal.Decimal `db:"price"`
	Status    bool            `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (c Currency) TableName() string {
	return "currencies"
}

// ExchangeCurrency is the crypto reference price table, USD-denominated.
type ExchangeCurrency struct {
	ID        string          `db:"id"`
	Code      string          `db:"code"`
	Price     decimal.Decimal `db:"price"`
	Status    bool            `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (c ExchangeCurrency) TableName() string {
	return "exchange_currencies"
}

// EcosystemToken describes a token tradable through ECO wallets.
type EcosystemToken struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Currency  string    `db:"currency"`
	Chain     string    `db:"chain"`
	Contract  string    `db:"contract"`
	Decimals  int       `db:"decimals"`
	Status    bool      `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (t EcosystemToken) TableName() string {
	return "ecosystem_tokens"
}
