package pnl

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/krobus00/portfolio-service/internal/service/ticker"
	"github.com/shopspring/decimal"
)

type fakeWalletStore struct {
	wallets []entity.Wallet
}

func (f *fakeWalletStore) GetByUserID(_ context.Context, _ string) ([]entity.Wallet, error) {
	return f.wallets, nil
}

type fakeSnapshotStore struct {
	byDay map[time.Time]*entity.WalletPnl
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{byDay: make(map[time.Time]*entity.WalletPnl)}
}

func (f *fakeSnapshotStore) UpsertDaily(_ context.Context, data *entity.WalletPnl) error {
	stored := *data
	f.byDay[data.CreatedAt] = &stored
	return nil
}

func (f *fakeSnapshotStore) GetByUserAndDate(_ context.Context, _ string, date time.Time) (*entity.WalletPnl, error) {
	snapshot, ok := f.byDay[date]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return snapshot, nil
}

func (f *fakeSnapshotStore) GetRange(_ context.Context, _ string, from, to time.Time) ([]entity.WalletPnl, error) {
	var out []entity.WalletPnl
	for day, snapshot := range f.byDay {
		if day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, *snapshot)
	}
	return out, nil
}

type fakePriceStore struct {
	fiat     map[string]decimal.Decimal
	exchange map[string]decimal.Decimal
	tokens   []entity.EcosystemToken
}

func (f *fakePriceStore) GetFiatPrices(_ context.Context) (map[string]decimal.Decimal, error) {
	return f.fiat, nil
}

func (f *fakePriceStore) GetExchangePrices(_ context.Context) (map[string]decimal.Decimal, error) {
	return f.exchange, nil
}

func (f *fakePriceStore) ListEcosystemTokens(_ context.Context) ([]entity.EcosystemToken, error) {
	return f.tokens, nil
}

func newTestService(wallets []entity.Wallet, prices *fakePriceStore, tickers ticker.Source, now time.Time) (*Service, *fakeSnapshotStore) {
	snapshots := newFakeSnapshotStore()
	svc := NewService(&fakeWalletStore{wallets: wallets}, snapshots, prices, tickers, nil)
	svc.now = func() time.Time { return now }
	return svc, snapshots
}

func mustEqual(t *testing.T, got, want decimal.Decimal, label string) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}

func TestComputeSnapshotAllBucketsPresent(t *testing.T) {
	svc, _ := newTestService(nil, &fakePriceStore{}, nil, time.Now())

	balances, err := svc.ComputeSnapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}

	if len(balances) != len(entity.AllWalletTypes) {
		t.Fatalf("got %d buckets, want %d", len(balances), len(entity.AllWalletTypes))
	}
	for _, walletType := range entity.AllWalletTypes {
		value, ok := balances[walletType]
		if !ok {
			t.Fatalf("missing bucket %s", walletType)
		}
		mustEqual(t, value, decimal.Zero, string(walletType))
	}
}

func TestComputeSnapshotFallbackChains(t *testing.T) {
	tickers := ticker.NewMapSource()
	tickers.Set("NEW", decimal.NewFromInt(3))

	prices := &fakePriceStore{
		fiat:     map[string]decimal.Decimal{"EUR": decimal.NewFromFloat(1.1)},
		exchange: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(50000)},
	}

	wallets := []entity.Wallet{
		{Type: entity.WalletTypeFiat, Currency: "EUR", Balance: decimal.NewFromInt(100)},
		{Type: entity.WalletTypeFiat, Currency: "XXX", Balance: decimal.NewFromInt(10)},
		{Type: entity.WalletTypeSpot, Currency: "BTC", Balance: decimal.NewFromInt(2)},
		{Type: entity.WalletTypeSpot, Currency: "NEW", Balance: decimal.NewFromInt(5)},
		{Type: entity.WalletTypeSpot, Currency: "GONE", Balance: decimal.NewFromInt(7)},
		{Type: entity.WalletTypeForex, Currency: "EUR", Balance: decimal.NewFromInt(20)},
		{Type: entity.WalletTypeForex, Currency: "USD", Balance: decimal.NewFromInt(30)},
		{Type: "BOGUS", Currency: "BTC", Balance: decimal.NewFromInt(99)},
	}

	svc, _ := newTestService(wallets, prices, tickers, time.Now())

	balances, err := svc.ComputeSnapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}

	// EUR priced from fiat, XXX falls to the 1:1 default.
	mustEqual(t, balances[entity.WalletTypeFiat], decimal.NewFromInt(120), "fiat")
	// BTC from exchange, NEW from the live ticker, GONE defaults to 0.
	mustEqual(t, balances[entity.WalletTypeSpot], decimal.NewFromInt(100015), "spot")
	// Forex has no exchange row; EUR from fiat, USD defaults to 1.
	mustEqual(t, balances[entity.WalletTypeForex], decimal.NewFromInt(52), "forex")
	// Unknown wallet type is skipped, not billed into any bucket.
	mustEqual(t, balances.Total(), decimal.NewFromInt(100187), "total")
}

func TestResolveNilTickerSource(t *testing.T) {
	book := priceBook{
		fiat:     map[string]decimal.Decimal{},
		exchange: map[string]decimal.Decimal{},
		tickers:  nil,
	}

	mustEqual(t, book.resolve(entity.WalletTypeSpot, "BTC"), decimal.Zero, "spot default")
	mustEqual(t, book.resolve(entity.WalletTypeIndex, "SPX"), decimal.NewFromInt(1), "index default")
}

func TestUpsertTodayOverwritesSameDay(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)
	svc, snapshots := newTestService(nil, &fakePriceStore{}, nil, now)

	first := entity.PnlBalances{entity.WalletTypeSpot: decimal.NewFromInt(10)}
	if _, err := svc.UpsertToday(context.Background(), "user-1", first); err != nil {
		t.Fatal(err)
	}

	second := entity.PnlBalances{entity.WalletTypeSpot: decimal.NewFromInt(25)}
	snapshot, err := svc.UpsertToday(context.Background(), "user-1", second)
	if err != nil {
		t.Fatal(err)
	}

	wantDay := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if !snapshot.CreatedAt.Equal(wantDay) {
		t.Fatalf("created_at = %s, want %s", snapshot.CreatedAt, wantDay)
	}

	if len(snapshots.byDay) != 1 {
		t.Fatalf("got %d rows, want 1", len(snapshots.byDay))
	}
	mustEqual(t, snapshots.byDay[wantDay].Balances.Total(), decimal.NewFromInt(25), "stored total")
}

func TestPnlDelta(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	wallets := []entity.Wallet{
		{Type: entity.WalletTypeSpot, Currency: "BTC", Balance: decimal.NewFromInt(3)},
	}
	prices := &fakePriceStore{
		exchange: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(50)},
	}

	svc, snapshots := newTestService(wallets, prices, nil, now)
	snapshots.byDay[today.AddDate(0, 0, -1)] = &entity.WalletPnl{
		UserID:    "user-1",
		Balances:  entity.PnlBalances{entity.WalletTypeSpot: decimal.NewFromInt(100)},
		CreatedAt: today.AddDate(0, 0, -1),
	}

	result, err := svc.Pnl(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}

	mustEqual(t, result.Today, decimal.NewFromInt(150), "today")
	mustEqual(t, result.Yesterday, decimal.NewFromInt(100), "yesterday")
	mustEqual(t, result.Pnl, decimal.NewFromInt(50), "pnl")
}

func TestPnlMissingYesterday(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	wallets := []entity.Wallet{
		{Type: entity.WalletTypeSpot, Currency: "BTC", Balance: decimal.NewFromInt(2)},
	}
	prices := &fakePriceStore{
		exchange: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(40)},
	}

	svc, _ := newTestService(wallets, prices, nil, now)

	result, err := svc.Pnl(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}

	mustEqual(t, result.Today, decimal.NewFromInt(80), "today")
	mustEqual(t, result.Yesterday, decimal.Zero, "yesterday")
	mustEqual(t, result.Pnl, decimal.NewFromInt(80), "pnl")
}

func TestPnlRequiresUserID(t *testing.T) {
	svc, _ := newTestService(nil, &fakePriceStore{}, nil, time.Now())
	if _, err := svc.Pnl(context.Background(), ""); err != ErrInvalidUserID {
		t.Fatalf("got %v, want ErrInvalidUserID", err)
	}
}

func TestBuildWeeklyChart(t *testing.T) {
	// 2026-08-31 is a Monday; the 28-day window starts 2026-08-04 (Tuesday),
	// so the anchor is Sunday 2026-08-02.
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	anchor := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	svc, snapshots := newTestService(nil, &fakePriceStore{}, nil, now)

	put := func(day time.Time, amount int64) {
		snapshots.byDay[day] = &entity.WalletPnl{
			UserID:    "user-1",
			Balances:  entity.PnlBalances{entity.WalletTypeSpot: decimal.NewFromInt(amount)},
			CreatedAt: day,
		}
	}

	put(anchor, 10)                  // first bucket
	put(anchor.AddDate(0, 0, 3), 5)  // first bucket
	put(anchor.AddDate(0, 0, 9), 7)  // second bucket
	put(anchor.AddDate(0, 0, 27), 2) // fourth bucket
	// Outside the window entirely.
	put(anchor.AddDate(0, 0, -1), 999)

	chart, err := svc.BuildWeeklyChart(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}

	if len(chart) != 4 {
		t.Fatalf("got %d buckets, want 4", len(chart))
	}

	wantDates := []string{"2026-08-02", "2026-08-09", "2026-08-16", "2026-08-23"}
	wantTotals := []int64{15, 7, 0, 2}
	for i, point := range chart {
		if point.Date != wantDates[i] {
			t.Fatalf("bucket %d date = %s, want %s", i, point.Date, wantDates[i])
		}
		mustEqual(t, point.Balances.Total(), decimal.NewFromInt(wantTotals[i]), point.Date)
	}
}

func TestBuildDailySeriesSumsWithinDay(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	svc, snapshots := newTestService(nil, &fakePriceStore{}, nil, now)
	snapshots.byDay[day] = &entity.WalletPnl{
		UserID: "user-1",
		Balances: entity.PnlBalances{
			entity.WalletTypeSpot: decimal.NewFromInt(4),
			entity.WalletTypeFiat: decimal.NewFromInt(6),
		},
		CreatedAt: day,
	}

	series, err := svc.BuildDailySeries(context.Background(), "user-1", day, day)
	if err != nil {
		t.Fatal(err)
	}

	if len(series) != 1 {
		t.Fatalf("got %d days, want 1", len(series))
	}
	mustEqual(t, series[day].Total(), decimal.NewFromInt(10), "day total")
	mustEqual(t, series[day][entity.WalletTypeForex], decimal.Zero, "untouched bucket")
}
