package pnl

import (
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/krobus00/portfolio-service/internal/service/ticker"
	"github.com/shopspring/decimal"
)

type priceSource int

const (
	sourceFiat priceSource = iota
	sourceExchange
	sourceTicker
)

// fallbackChains is the ordered price-source table per wallet type. Adding an
// asset class is a table edit, not a new branch.
var fallbackChains = map[entity.WalletType][]priceSource{
	entity.WalletTypeFiat:    {sourceFiat},
	entity.WalletTypeSpot:    {sourceExchange, sourceTicker},
	entity.WalletTypeEco:     {sourceExchange, sourceTicker},
	entity.WalletTypeFutures: {sourceExchange, sourceFiat},
	entity.WalletTypeForex:   {sourceExchange, sourceFiat},
	entity.WalletTypeStock:   {sourceExchange, sourceFiat},
	entity.WalletTypeIndex:   {sourceExchange, sourceFiat},
}

// terminalDefaults applies when every source in the chain misses. FIAT and
// the quote-settled classes fall back to 1:1 (they typically hold USD-like
// currencies); SPOT/ECO fall back to 0.
var terminalDefaults = map[entity.WalletType]decimal.Decimal{
	entity.WalletTypeFiat:    decimal.NewFromInt(1),
	entity.WalletTypeSpot:    decimal.Zero,
	entity.WalletTypeEco:     decimal.Zero,
	entity.WalletTypeFutures: decimal.NewFromInt(1),
	entity.WalletTypeForex:   decimal.NewFromInt(1),
	entity.WalletTypeStock:   decimal.NewFromInt(1),
	entity.WalletTypeIndex:   decimal.NewFromInt(1),
}

// priceBook resolves a USD unit price for one wallet. Resolution never
// errors: an unknown currency yields the wallet type's terminal default.
type priceBook struct {
	fiat     map[string]decimal.Decimal
	exchange map[string]decimal.Decimal
	tickers  ticker.Source
}

func (b priceBook) resolve(walletType entity.WalletType, currency string) decimal.Decimal {
	for _, source := range fallbackChains[walletType] {
		switch source {
		case sourceFiat:
			if price, ok := b.fiat[currency]; ok {
				return price
			}
		case sourceExchange:
			if price, ok := b.exchange[currency]; ok {
				return price
			}
		case sourceTicker:
			if b.tickers == nil {
				continue
			}
			if last, ok := b.tickers.Last(currency); ok {
				return last
			}
		}
	}

	if fallback, ok := terminalDefaults[walletType]; ok {
		return fallback
	}

	return decimal.Zero
}
