package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/portfolio-service/internal/entity"
)

func newMockMarketRepository(t *testing.T) (*MarketRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })

	return NewMarketRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestApplyReconciliationRollsBackOnInsertFailure(t *testing.T) {
	repo, mock := newMockMarketRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM exchange_orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM exchange_watchlists").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM futures_markets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM exchange_markets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO exchange_markets").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.ApplyReconciliation(context.Background(), "binance",
		[]entity.ExchangeMarket{{Currency: "NEW", Pair: "USDT"}},
		nil,
		[]entity.SymbolPair{{Currency: "OLD", Pair: "USDT"}},
	)
	if err == nil {
		t.Fatal("expected error from failed insert")
	}

	// The rollback expectation is what proves the property: the deletes from
	// this import never commit once the insert phase fails.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyReconciliationInsertMirrorsFutures(t *testing.T) {
	repo, mock := newMockMarketRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO exchange_markets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO futures_markets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyReconciliation(context.Background(), "binance",
		[]entity.ExchangeMarket{{Currency: "NEW", Pair: "USDT", PricePrecision: 2, AmountPrecision: 5}},
		nil,
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyReconciliationUpdateLeavesStatusAlone(t *testing.T) {
	repo, mock := newMockMarketRepository(t)

	// Anchored full-statement match: a SET clause touching status would fail
	// the expectation, so operator activation survives a metadata refresh.
	updateExchange := "^" + regexp.QuoteMeta(
		"UPDATE exchange_markets SET price_precision = $1, amount_precision = $2, limits = $3, taker = $4, maker = $5, updated_at = $6 WHERE currency = $7 AND pair = $8 AND venue = $9",
	) + "$"
	updateFutures := "^" + regexp.QuoteMeta(
		"UPDATE futures_markets SET price_precision = $1, amount_precision = $2, limits = $3, taker = $4, maker = $5, updated_at = $6 WHERE currency = $7 AND pair = $8 AND venue = $9",
	) + "$"

	mock.ExpectBegin()
	mock.ExpectExec(updateExchange).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateFutures).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyReconciliation(context.Background(), "binance",
		nil,
		[]entity.ExchangeMarket{{Currency: "BTC", Pair: "USDT", PricePrecision: 2, AmountPrecision: 5}},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
