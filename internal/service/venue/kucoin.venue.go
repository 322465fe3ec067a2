package venue

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/krobus00/portfolio-service/internal/config"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/shopspring/decimal"
)

const kucoinDefaultBaseURL = "https://api.kucoin.com"

type KucoinVenue struct {
	baseURL    string
	taker      decimal.Decimal
	maker      decimal.Decimal
	httpClient *http.Client
}

func InitKucoinVenue(cfg config.VenueConfig) *KucoinVenue {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = kucoinDefaultBaseURL
	}

	v := &KucoinVenue{
		baseURL:    strings.TrimRight(baseURL, "/"),
		taker:      cfg.TakerFee,
		maker:      cfg.MakerFee,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	RegisterVenue(entity.VenueKucoin, v)

	return v
}

func (v *KucoinVenue) Name() entity.VenueName {
	return entity.VenueKucoin
}

type kucoinSymbolsResponse struct {
	Data []struct {
		Symbol         string `json:"symbol"`
		BaseCurrency   string `json:"baseCurrency"`
		QuoteCurrency  string `json:"quoteCurrency"`
		EnableTrading  bool   `json:"enableTrading"`
		PriceIncrement string `json:"priceIncrement"`
		BaseIncrement  string `json:"baseIncrement"`
		BaseMinSize    string `json:"baseMinSize"`
		BaseMaxSize    string `json:"baseMaxSize"`
		MinFunds       string `json:"minFunds"`
	} `json:"data"`
}

func (v *KucoinVenue) LoadMarkets(ctx context.Context) (map[string]entity.VenueMarket, error) {
	var payload kucoinSymbolsResponse
	err := getJSON(ctx, v.httpClient, v.baseURL+"/api/v2/symbols", nil, &payload)
	if err != nil {
		return nil, fmt.Errorf("kucoin load markets: %w", err)
	}

	markets := make(map[string]entity.VenueMarket, len(payload.Data))
	for _, s := range payload.Data {
		market := entity.VenueMarket{
			Symbol: s.BaseCurrency + "/" + s.QuoteCurrency,
			Base:   s.BaseCurrency,
			Quote:  s.QuoteCurrency,
			Active: s.EnableTrading,
			Type:   "spot",
			Taker:  v.taker,
			Maker:  v.maker,
			Precision: entity.VenuePrecision{
				Price:  asNullFloat(s.PriceIncrement),
				Amount: asNullFloat(s.BaseIncrement),
			},
		}

		market.Limits.Amount = entity.LimitBand{
			Min: asNullFloat(s.BaseMinSize),
			Max: asNullFloat(s.BaseMaxSize),
		}
		market.Limits.Cost.Min = asNullFloat(s.MinFunds)

		markets[market.Symbol] = market
	}

	return markets, nil
}

type kucoinCurrencyResponse struct {
	Data struct {
		Currency string           `json:"currency"`
		Chains   []map[string]any `json:"chains"`
	} `json:"data"`
}

// FetchCurrency returns a payload with the "networks" array the kucoin
// normalizer expects.
func (v *KucoinVenue) FetchCurrency(ctx context.Context, code string) (any, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var payload kucoinCurrencyResponse
	err := getJSON(ctx, v.httpClient, v.baseURL+"/api/v3/currencies/"+code, nil, &payload)
	if err != nil {
		return nil, fmt.Errorf("kucoin fetch currency %s: %w", code, err)
	}

	networks := make([]any, 0, len(payload.Data.Chains))
	for _, chain := range payload.Data.Chains {
		networks = append(networks, chain)
	}

	return map[string]any{"networks": networks}, nil
}

// NormalizeKucoinNetworks expects a payload with a "networks" array. The
// venue never reports a max withdraw, so it is always null; memo presence is
// derived from a non-empty contract address.
func NormalizeKucoinNetworks(raw any) []entity.NetworkWithdrawInfo {
	payload, ok := asMap(raw)
	if !ok {
		return []entity.NetworkWithdrawInfo{}
	}

	networks, ok := asSlice(payload["networks"])
	if !ok {
		return []entity.NetworkWithdrawInfo{}
	}

	out := make([]entity.NetworkWithdrawInfo, 0, len(networks))
	for _, rawEntry := range networks {
		entry, ok := asMap(rawEntry)
		if !ok {
			continue
		}

		name := asString(entry["network"])
		if name == "" {
			name = asString(entry["chainName"])
		}

		out = append(out, entity.NetworkWithdrawInfo{
			Network:        name,
			WithdrawStatus: asBool(entry["withdraw"]),
			DepositStatus:  asBool(entry["deposit"]),
			MinWithdraw:    asNullFloat(entry["minWithdraw"]),
			WithdrawFee:    feeOrZero(entry["withdrawFee"]),
			WithdrawMemo:   nonEmptyString(entry["contractAddress"]),
			ChainID:        strings.ToUpper(asString(entry["id"])),
			Precision:      networkPrecision(entry["precision"]),
		})
	}

	return sortNetworks(out)
}
