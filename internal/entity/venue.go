package entity

import (
	"context"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

type VenueName string

const (
	VenueBinance VenueName = "binance"
	VenueKucoin  VenueName = "kucoin"
	VenueXT      VenueName = "xt"
	VenueOKX     VenueName = "okx"

	// VenueTwelveData is a market-data provider, not a trading venue. It is
	// recognized only so the generic import path can reject it with a
	// redirect message instead of treating it as unknown.
	VenueTwelveData VenueName = "twelvedata"
)

// VenueClient is a started trading-venue client. Implementations live in
// internal/service/venue and are registered by name at bootstrap.
type VenueClient interface {
	Name() VenueName
	LoadMarkets(ctx context.Context) (map[string]VenueMarket, error)
	FetchCurrency(ctx context.Context, code string) (any, error)
}

// VenueMarket is the venue-reported shape of one tradable pair, before
// canonicalization. Precision values are minimum increments (e.g. 0.01),
// not digit counts.
type VenueMarket struct {
	Symbol    string // "BTC/USDT"
	Base      string
	Quote     string
	Active    bool
	Type      string // "spot", "swap", ...
	Precision VenuePrecision
	Limits    VenueLimits
	Taker     decimal.Decimal
	Maker     decimal.Decimal
}

type VenuePrecision struct {
	Price  null.Float
	Amount null.Float
}

type VenueLimits struct {
	Amount   LimitBand
	Price    LimitBand
	Cost     LimitBand
	Leverage LimitBand
}
