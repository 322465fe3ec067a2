package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/portfolio-service/internal/entity"
)

type MarketRepository struct {
	db *sqlx.DB
}

func NewMarketRepository(db *sqlx.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

func (r *MarketRepository) GetByVenue(ctx context.Context, venue string) ([]entity.ExchangeMarket, error) {
	var markets []entity.ExchangeMarket
	err := r.db.SelectContext(ctx, &markets, "SELECT * FROM exchange_markets WHERE venue = $1 ORDER BY currency, pair", venue)
	return markets, err
}

// ApplyReconciliation applies one import's diff in a single transaction:
// either every delete, insert, and metadata refresh commits, or none do.
// Deletes cascade to dependent order and watchlist rows for the pair, and to
// the futures mirror. Inserts mirror metadata into futures_markets with the
// same inactive status.
func (r *MarketRepository) ApplyReconciliation(ctx context.Context, venue string, create, update []entity.ExchangeMarket, remove []entity.SymbolPair) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, pair := range remove {
		if err := r.deleteMarketTx(ctx, tx, venue, pair); err != nil {
			return err
		}
	}

	now := time.Now().UTC()

	for _, market := range create {
		market.ID = uuid.NewString()
		market.Venue = venue
		market.Status = false
		market.CreatedAt = now
		market.UpdatedAt = now

		if err := r.insertMarketTx(ctx, tx, market.TableName(), market); err != nil {
			return err
		}

		futures := entity.FuturesMarket{ExchangeMarket: market}
		futures.ID = uuid.NewString()
		if err := r.insertMarketTx(ctx, tx, futures.TableName(), futures.ExchangeMarket); err != nil {
			return err
		}
	}

	for _, market := range update {
		if err := r.updateMarketMetadataTx(ctx, tx, "exchange_markets", venue, market, now); err != nil {
			return err
		}
		if err := r.updateMarketMetadataTx(ctx, tx, "futures_markets", venue, market, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *MarketRepository) deleteMarketTx(ctx context.Context, tx *sqlx.Tx, venue string, pair entity.SymbolPair) error {
	statements := []sq.DeleteBuilder{
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
			Delete("exchange_orders").
			Where(sq.Eq{"currency": pair.Currency, "pair": pair.Pair}),
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
			Delete("exchange_watchlists").
			Where(sq.Eq{"symbol": pair.Symbol()}),
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
			Delete("futures_markets").
			Where(sq.Eq{"venue": venue, "currency": pair.Currency, "pair": pair.Pair}),
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
			Delete("exchange_markets").
			Where(sq.Eq{"venue": venue, "currency": pair.Currency, "pair": pair.Pair}),
	}

	for _, builder := range statements {
		query, args, err := builder.ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	return nil
}

func (r *MarketRepository) insertMarketTx(ctx context.Context, tx *sqlx.Tx, table string, market entity.ExchangeMarket) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(table).
		Columns(
			"id",
			"venue",
			"currency",
			"pair",
			"price_precision",
			"amount_precision",
			"limits",
			"taker",
			"maker",
			"status",
			"created_at",
			"updated_at",
		).
		Values(
			market.ID,
			market.Venue,
			market.Currency,
			market.Pair,
			market.PricePrecision,
			market.AmountPrecision,
			market.Limits,
			market.Taker,
			market.Maker,
			market.Status,
			market.CreatedAt,
			market.UpdatedAt,
		)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (r *MarketRepository) updateMarketMetadataTx(ctx context.Context, tx *sqlx.Tx, table string, venue string, market entity.ExchangeMarket, now time.Time) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update(table).
		Set("price_precision", market.PricePrecision).
		Set("amount_precision", market.AmountPrecision).
		Set("limits", market.Limits).
		Set("taker", market.Taker).
		Set("maker", market.Maker).
		Set("updated_at", now).
		Where(sq.Eq{"venue": venue, "currency": market.Currency, "pair": market.Pair})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}
