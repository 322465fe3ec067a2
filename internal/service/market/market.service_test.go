package market

import (
	"context"
	"errors"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/shopspring/decimal"
)

type fakeMarketStore struct {
	existing []entity.ExchangeMarket

	create []entity.ExchangeMarket
	update []entity.ExchangeMarket
	remove []entity.SymbolPair
}

func (f *fakeMarketStore) GetByVenue(_ context.Context, _ string) ([]entity.ExchangeMarket, error) {
	return f.existing, nil
}

func (f *fakeMarketStore) ApplyReconciliation(_ context.Context, venue string, create, update []entity.ExchangeMarket, remove []entity.SymbolPair) error {
	f.create = create
	f.update = update
	f.remove = remove

	for i := range create {
		create[i].Venue = venue
		create[i].Status = false
		f.existing = append(f.existing, create[i])
	}
	return nil
}

type fakeLock struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLock) Acquire(_ context.Context, _ string) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(_ context.Context, _ string) error {
	f.releases++
	f.held = false
	return nil
}

type fakeVenueClient struct {
	name    entity.VenueName
	markets map[string]entity.VenueMarket
	err     error
}

func (f *fakeVenueClient) Name() entity.VenueName { return f.name }

func (f *fakeVenueClient) LoadMarkets(_ context.Context) (map[string]entity.VenueMarket, error) {
	return f.markets, f.err
}

func (f *fakeVenueClient) FetchCurrency(_ context.Context, _ string) (any, error) {
	return nil, nil
}

func newTestService(store *fakeMarketStore, lock *fakeLock, client *fakeVenueClient) *Service {
	svc := NewService(store, lock, nil, "binance")
	svc.resolveVenue = func(name entity.VenueName) (entity.VenueClient, bool) {
		if client != nil && client.name == name {
			return client, true
		}
		return nil, false
	}
	return svc
}

func spotMarket(base, quote string, pricePrec, amountPrec float64) entity.VenueMarket {
	return entity.VenueMarket{
		Symbol: base + "/" + quote,
		Base:   base,
		Quote:  quote,
		Active: true,
		Type:   "spot",
		Precision: entity.VenuePrecision{
			Price:  null.FloatFrom(pricePrec),
			Amount: null.FloatFrom(amountPrec),
		},
		Taker: decimal.NewFromFloat(0.001),
		Maker: decimal.NewFromFloat(0.001),
	}
}

func TestImportMarketsUnknownVenue(t *testing.T) {
	svc := newTestService(&fakeMarketStore{}, &fakeLock{}, nil)
	if _, err := svc.ImportMarkets(context.Background(), "hitbtc"); !errors.Is(err, ErrVenueNotFound) {
		t.Fatalf("got %v, want ErrVenueNotFound", err)
	}
}

func TestImportMarketsRejectsTwelveData(t *testing.T) {
	svc := newTestService(&fakeMarketStore{}, &fakeLock{}, nil)
	if _, err := svc.ImportMarkets(context.Background(), "twelvedata"); !errors.Is(err, ErrUnsupportedVenue) {
		t.Fatalf("got %v, want ErrUnsupportedVenue", err)
	}
}

func TestImportMarketsNoDefaultVenue(t *testing.T) {
	svc := newTestService(&fakeMarketStore{}, &fakeLock{}, nil)
	svc.defaultVenue = ""
	if _, err := svc.ImportMarkets(context.Background(), ""); !errors.Is(err, ErrNoActiveVenue) {
		t.Fatalf("got %v, want ErrNoActiveVenue", err)
	}
}

func TestImportMarketsLockHeld(t *testing.T) {
	client := &fakeVenueClient{name: entity.VenueBinance, markets: map[string]entity.VenueMarket{}}
	lock := &fakeLock{held: true}
	svc := newTestService(&fakeMarketStore{}, lock, client)

	if _, err := svc.ImportMarkets(context.Background(), "binance"); !errors.Is(err, ErrImportInProgress) {
		t.Fatalf("got %v, want ErrImportInProgress", err)
	}
	if lock.releases != 0 {
		t.Fatal("a lock that was never acquired must not be released")
	}
}

func TestImportMarketsLoadFailureIsTerminal(t *testing.T) {
	client := &fakeVenueClient{name: entity.VenueBinance, err: errors.New("boom")}
	lock := &fakeLock{}
	svc := newTestService(&fakeMarketStore{}, lock, client)

	if _, err := svc.ImportMarkets(context.Background(), "binance"); !errors.Is(err, ErrLoadMarketsFailed) {
		t.Fatalf("got %v, want ErrLoadMarketsFailed", err)
	}
	if lock.releases != 1 {
		t.Fatal("lock must be released on failure")
	}
}

func TestImportMarketsDefaultVenue(t *testing.T) {
	client := &fakeVenueClient{
		name: entity.VenueBinance,
		markets: map[string]entity.VenueMarket{
			"BTC/USDT": spotMarket("BTC", "USDT", 0.01, 0.00001),
		},
	}
	svc := newTestService(&fakeMarketStore{}, &fakeLock{}, client)

	summary, err := svc.ImportMarkets(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Venue != "binance" {
		t.Fatalf("venue = %s, want binance", summary.Venue)
	}
}

func TestCanonicalizeFilters(t *testing.T) {
	inactive := spotMarket("OLD", "USDT", 0.01, 0.01)
	inactive.Active = false

	swap := spotMarket("ETH", "USDT", 0.01, 0.01)
	swap.Type = "swap"

	noPrecision := spotMarket("XRP", "USDT", 0.01, 0.01)
	noPrecision.Precision.Amount = null.Float{}

	raw := map[string]entity.VenueMarket{
		"BTC/USDT": spotMarket("BTC", "USDT", 0.01, 0.00001),
		"OLD/USDT": inactive,
		"ETH/USDT": swap,
		"XRP/USDT": noPrecision,
	}

	markets := canonicalize(entity.VenueBinance, raw)
	if len(markets) != 1 {
		t.Fatalf("got %d markets, want 1", len(markets))
	}

	m := markets[0]
	if m.Currency != "BTC" || m.Pair != "USDT" {
		t.Fatalf("got %s/%s, want BTC/USDT", m.Currency, m.Pair)
	}
	if m.PricePrecision != 2 {
		t.Fatalf("price precision = %d, want 2", m.PricePrecision)
	}
	if m.AmountPrecision != 5 {
		t.Fatalf("amount precision = %d, want 5", m.AmountPrecision)
	}
	if m.Limits.Amount.Min.Float64 != 0 || !m.Limits.Amount.Min.Valid {
		t.Fatal("amount min must default to 0")
	}
	if m.Limits.Cost.Min.Float64 != defaultCostMin {
		t.Fatalf("cost min = %v, want %v", m.Limits.Cost.Min.Float64, defaultCostMin)
	}
	if m.Limits.Cost.Max.Float64 != defaultCostMax {
		t.Fatalf("cost max = %v, want %v", m.Limits.Cost.Max.Float64, defaultCostMax)
	}
}

func TestCanonicalizeSwapAllowedOffSpotOnlyVenue(t *testing.T) {
	swap := spotMarket("BTC", "USDT", 0.1, 1)
	swap.Type = "swap"

	markets := canonicalize(entity.VenueOKX, map[string]entity.VenueMarket{"BTC/USDT": swap})
	if len(markets) != 1 {
		t.Fatalf("got %d markets, want 1", len(markets))
	}
}

func TestCanonicalizePrecisionClamp(t *testing.T) {
	m := spotMarket("SHIB", "USDT", 0.0000000001, 1)

	markets := canonicalize(entity.VenueBinance, map[string]entity.VenueMarket{"SHIB/USDT": m})
	if len(markets) != 1 {
		t.Fatal("expected one market")
	}
	if markets[0].PricePrecision != 8 {
		t.Fatalf("price precision = %d, want 8", markets[0].PricePrecision)
	}
	if markets[0].AmountPrecision != 0 {
		t.Fatalf("amount precision = %d, want 0", markets[0].AmountPrecision)
	}
}

func TestImportMarketsReconciliation(t *testing.T) {
	store := &fakeMarketStore{
		existing: []entity.ExchangeMarket{
			{Venue: "binance", Currency: "BTC", Pair: "USDT", Status: true},
			{Venue: "binance", Currency: "OLD", Pair: "USDT", Status: true},
		},
	}

	noPrecision := spotMarket("ETH", "USDT", 0.01, 0.01)
	noPrecision.Precision.Price = null.Float{}

	client := &fakeVenueClient{
		name: entity.VenueBinance,
		markets: map[string]entity.VenueMarket{
			"BTC/USDT": spotMarket("BTC", "USDT", 0.01, 0.00001),
			"ETH/USDT": noPrecision,
			"NEW/USDT": spotMarket("NEW", "USDT", 0.001, 0.1),
		},
	}

	svc := newTestService(store, &fakeLock{}, client)

	summary, err := svc.ImportMarkets(context.Background(), "binance")
	if err != nil {
		t.Fatal(err)
	}

	// NEW/USDT created, OLD/USDT removed, ETH/USDT dropped at canonicalize,
	// BTC/USDT refreshed in place.
	if summary.Created != 1 || summary.Deleted != 1 || summary.Updated != 1 || summary.Fetched != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if store.create[0].Symbol() != "NEW/USDT" {
		t.Fatalf("created %s, want NEW/USDT", store.create[0].Symbol())
	}
	if store.remove[0].Symbol() != "OLD/USDT" {
		t.Fatalf("removed %s, want OLD/USDT", store.remove[0].Symbol())
	}
	if store.update[0].Symbol() != "BTC/USDT" {
		t.Fatalf("updated %s, want BTC/USDT", store.update[0].Symbol())
	}
}

func TestImportMarketsIdempotent(t *testing.T) {
	store := &fakeMarketStore{}
	lock := &fakeLock{}
	client := &fakeVenueClient{
		name: entity.VenueBinance,
		markets: map[string]entity.VenueMarket{
			"BTC/USDT": spotMarket("BTC", "USDT", 0.01, 0.00001),
			"ETH/USDT": spotMarket("ETH", "USDT", 0.01, 0.0001),
		},
	}
	svc := newTestService(store, lock, client)

	first, err := svc.ImportMarkets(context.Background(), "binance")
	if err != nil {
		t.Fatal(err)
	}
	if first.Created != 2 || first.Deleted != 0 {
		t.Fatalf("first summary = %+v", first)
	}

	second, err := svc.ImportMarkets(context.Background(), "binance")
	if err != nil {
		t.Fatal(err)
	}
	if second.Created != 0 || second.Deleted != 0 || second.Updated != 2 {
		t.Fatalf("second summary = %+v", second)
	}
	if lock.releases != 2 {
		t.Fatalf("lock releases = %d, want 2", lock.releases)
	}
}

func TestDiffMarketsRemoveDeterministic(t *testing.T) {
	existing := []entity.ExchangeMarket{
		{Currency: "ZRX", Pair: "USDT"},
		{Currency: "AAVE", Pair: "USDT"},
	}

	_, _, remove := diffMarkets(existing, nil)
	if len(remove) != 2 {
		t.Fatalf("got %d removals, want 2", len(remove))
	}
	if remove[0].Symbol() != "AAVE/USDT" || remove[1].Symbol() != "ZRX/USDT" {
		t.Fatalf("removals not sorted: %v", remove)
	}
}
