package venue

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/krobus00/portfolio-service/internal/config"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/shopspring/decimal"
)

const xtDefaultBaseURL = "https://sapi.xt.com"

type XTVenue struct {
	baseURL    string
	taker      decimal.Decimal
	maker      decimal.Decimal
	httpClient *http.Client
}

func InitXTVenue(cfg config.VenueConfig) *XTVenue {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = xtDefaultBaseURL
	}

	v := &XTVenue{
		baseURL:    strings.TrimRight(baseURL, "/"),
		taker:      cfg.TakerFee,
		maker:      cfg.MakerFee,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	RegisterVenue(entity.VenueXT, v)

	return v
}

func (v *XTVenue) Name() entity.VenueName {
	return entity.VenueXT
}

type xtSymbolsResponse struct {
	Result struct {
		Symbols []struct {
			Symbol            string `json:"symbol"`
			State             string `json:"state"`
			BaseCurrency      string `json:"baseCurrency"`
			QuoteCurrency     string `json:"quoteCurrency"`
			PricePrecision    int    `json:"pricePrecision"`
			QuantityPrecision int    `json:"quantityPrecision"`
			TradingEnabled    bool   `json:"tradingEnabled"`
		} `json:"symbols"`
	} `json:"result"`
}

func (v *XTVenue) LoadMarkets(ctx context.Context) (map[string]entity.VenueMarket, error) {
	var payload xtSymbolsResponse
	err := getJSON(ctx, v.httpClient, v.baseURL+"/v4/public/symbol", nil, &payload)
	if err != nil {
		return nil, fmt.Errorf("xt load markets: %w", err)
	}

	markets := make(map[string]entity.VenueMarket, len(payload.Result.Symbols))
	for _, s := range payload.Result.Symbols {
		base := strings.ToUpper(s.BaseCurrency)
		quote := strings.ToUpper(s.QuoteCurrency)

		market := entity.VenueMarket{
			Symbol: base + "/" + quote,
			Base:   base,
			Quote:  quote,
			Active: s.State == "ONLINE" && s.TradingEnabled,
			Type:   "spot",
			Taker:  v.taker,
			Maker:  v.maker,
			Precision: entity.VenuePrecision{
				Price:  digitsToIncrement(s.PricePrecision),
				Amount: digitsToIncrement(s.QuantityPrecision),
			},
		}

		markets[market.Symbol] = market
	}

	return markets, nil
}

// digitsToIncrement converts xt digit-count precision into the minimum
// increment form the canonicalizer consumes everywhere else.
func digitsToIncrement(digits int) null.Float {
	if digits < 0 {
		return null.Float{}
	}

	return null.FloatFrom(math.Pow(10, -float64(digits)))
}

type xtCurrenciesResponse struct {
	Result []struct {
		Currency      string           `json:"currency"`
		WithdrawFee   any              `json:"withdrawFeeAmount"`
		Precision     any              `json:"depositPrecision"`
		SupportChains []map[string]any `json:"supportChains"`
	} `json:"result"`
}

// FetchCurrency returns the networks map plus sibling fee/precision/info
// fields the xt normalizer expects.
func (v *XTVenue) FetchCurrency(ctx context.Context, code string) (any, error) {
	var payload xtCurrenciesResponse
	err := getJSON(ctx, v.httpClient, v.baseURL+"/v4/public/wallet/support/currency", nil, &payload)
	if err != nil {
		return nil, fmt.Errorf("xt fetch currency %s: %w", code, err)
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	for _, currency := range payload.Result {
		if !strings.EqualFold(currency.Currency, code) {
			continue
		}

		networks := make(map[string]any, len(currency.SupportChains))
		info := make(map[string]any)
		for _, chain := range currency.SupportChains {
			key := asString(chain["chain"])
			if key == "" {
				continue
			}
			networks[key] = chain
			info[key] = chain
		}

		return map[string]any{
			"networks":  networks,
			"fee":       currency.WithdrawFee,
			"precision": currency.Precision,
			"info":      info,
		}, nil
	}

	return nil, fmt.Errorf("xt currency %s not found", code)
}

// NormalizeXTNetworks expects a "networks" map with sibling fee/precision/
// info fields. Status flags are the venue's "1"/"0" strings; the venue gives
// no memo signal, so memo is always false.
func NormalizeXTNetworks(raw any) []entity.NetworkWithdrawInfo {
	payload, ok := asMap(raw)
	if !ok {
		return []entity.NetworkWithdrawInfo{}
	}

	networks, ok := asMap(payload["networks"])
	if !ok {
		return []entity.NetworkWithdrawInfo{}
	}

	fee := feeOrZero(payload["fee"])
	precision := networkPrecision(payload["precision"])

	out := make([]entity.NetworkWithdrawInfo, 0, len(networks))
	for key, rawEntry := range networks {
		entry, ok := asMap(rawEntry)
		if !ok {
			continue
		}

		out = append(out, entity.NetworkWithdrawInfo{
			Network:        key,
			WithdrawStatus: asString(entry["withdrawStatus"]) == "1",
			DepositStatus:  asString(entry["depositStatus"]) == "1",
			MinWithdraw:    asNullFloat(entry["withdrawMinAmount"]),
			MaxWithdraw:    asNullFloat(entry["withdrawMaxAmount"]),
			WithdrawFee:    fee,
			WithdrawMemo:   false,
			ChainID:        strings.ToUpper(key),
			Precision:      precision,
		})
	}

	return sortNetworks(out)
}
