package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/shopspring/decimal"
)

type PriceRepository struct {
	db *sqlx.DB
}

func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

func (r *PriceRepository) GetFiatPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	var currencies []entity.Currency
	err := r.db.SelectContext(ctx, &currencies, "SELECT * FROM currencies WHERE status = true")
	if err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(currencies))
	for _, currency := range currencies {
		prices[currency.Code] = currency.Price
	}

	return prices, nil
}

func (r *PriceRepository) GetExchangePrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	var currencies []entity.ExchangeCurrency
	err := r.db.SelectContext(ctx, &currencies, "SELECT * FROM exchange_currencies WHERE status = true")
	if err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(currencies))
	for _, currency := range currencies {
		prices[currency.Code] = currency.Price
	}

	return prices, nil
}

func (r *PriceRepository) ListEcosystemTokens(ctx context.Context) ([]entity.EcosystemToken, error) {
	var tokens []entity.EcosystemToken
	err := r.db.SelectContext(ctx, &tokens, "SELECT * FROM ecosystem_tokens WHERE status = true ORDER BY currency")
	return tokens, err
}
