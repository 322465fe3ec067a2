package entity

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// MaxPrecision is the highest number of decimal places the system stores for
// prices and amounts.
const MaxPrecision = 8

type LimitBand struct {
	Min null.Float `json:"min"`
	Max null.Float `json:"max"`
}

type MarketLimits struct {
	Amount   LimitBand `json:"amount"`
	Price    LimitBand `json:"price"`
	Cost     LimitBand `json:"cost"`
	Leverage LimitBand `json:"leverage"`
}

func (l MarketLimits) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *MarketLimits) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = MarketLimits{}
		return nil
	default:
		return errors.New("unsupported market limits column type")
	}
}

// ExchangeMarket is the canonical, venue-agnostic record of a tradable pair.
// Newly imported markets start inactive; an operator activates them.
type ExchangeMarket struct {
	ID              string          `db:"id"`
	Venue           string          `db:"venue"`
	Currency        string          `db:"currency"`
	Pair            string          `db:"pair"`
	PricePrecision  int             `db:"price_precision"`
	AmountPrecision int             `db:"amount_precision"`
	Limits          MarketLimits    `db:"limits"`
	Taker           decimal.Decimal `db:"taker"`
	Maker           decimal.Decimal `db:"maker"`
	Status          bool            `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (m ExchangeMarket) TableName() string {
	return "exchange_markets"
}

func (m ExchangeMarket) Symbol() string {
	return m.Currency + "/" + m.Pair
}

// FuturesMarket mirrors ExchangeMarket metadata into the derivatives table.
type FuturesMarket struct {
	ExchangeMarket
}

func (m FuturesMarket) TableName() string {
	return "futures_markets"
}

type ExchangeOrder struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Currency  string    `db:"currency"`
	Pair      string    `db:"pair"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (o ExchangeOrder) TableName() string {
	return "exchange_orders"
}

type ExchangeWatchlist struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Symbol    string    `db:"symbol"`
	CreatedAt time.Time `db:"created_at"`
}

func (w ExchangeWatchlist) TableName() string {
	return "exchange_watchlists"
}
