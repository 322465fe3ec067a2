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

const okxDefaultBaseURL = "https://www.okx.com"

type OKXVenue struct {
	baseURL    string
	apiKey     string
	taker      decimal.Decimal
	maker      decimal.Decimal
	httpClient *http.Client
}

func InitOKXVenue(cfg config.VenueConfig) *OKXVenue {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = okxDefaultBaseURL
	}

	v := &OKXVenue{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		taker:      cfg.TakerFee,
		maker:      cfg.MakerFee,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	RegisterVenue(entity.VenueOKX, v)

	return v
}

func (v *OKXVenue) Name() entity.VenueName {
	return entity.VenueOKX
}

type okxInstrumentsResponse struct {
	Data []struct {
		InstID   string `json:"instId"`
		BaseCcy  string `json:"baseCcy"`
		QuoteCcy string `json:"quoteCcy"`
		State    string `json:"state"`
		TickSz   string `json:"tickSz"`
		LotSz    string `json:"lotSz"`
		MinSz    string `json:"minSz"`
		MaxLmtSz string `json:"maxLmtSz"`
	} `json:"data"`
}

func (v *OKXVenue) LoadMarkets(ctx context.Context) (map[string]entity.VenueMarket, error) {
	var payload okxInstrumentsResponse
	err := getJSON(ctx, v.httpClient, v.baseURL+"/api/v5/public/instruments?instType=SPOT", nil, &payload)
	if err != nil {
		return nil, fmt.Errorf("okx load markets: %w", err)
	}

	markets := make(map[string]entity.VenueMarket, len(payload.Data))
	for _, s := range payload.Data {
		market := entity.VenueMarket{
			Symbol: s.BaseCcy + "/" + s.QuoteCcy,
			Base:   s.BaseCcy,
			Quote:  s.QuoteCcy,
			Active: s.State == "live",
			Type:   "spot",
			Taker:  v.taker,
			Maker:  v.maker,
			Precision: entity.VenuePrecision{
				Price:  asNullFloat(s.TickSz),
				Amount: asNullFloat(s.LotSz),
			},
		}

		market.Limits.Amount = entity.LimitBand{
			Min: asNullFloat(s.MinSz),
			Max: asNullFloat(s.MaxLmtSz),
		}

		markets[market.Symbol] = market
	}

	return markets, nil
}

type okxCurrenciesResponse struct {
	Data []map[string]any `json:"data"`
}

// FetchCurrency returns the entry array the okx normalizer expects.
func (v *OKXVenue) FetchCurrency(ctx context.Context, code string) (any, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	endpoint := v.baseURL + "/api/v5/asset/currencies?ccy=" + code

	var payload okxCurrenciesResponse
	headers := map[string]string{"OK-ACCESS-KEY": v.apiKey}
	err := getJSON(ctx, v.httpClient, endpoint, headers, &payload)
	if err != nil {
		return nil, fmt.Errorf("okx fetch currency %s: %w", code, err)
	}

	entries := make([]any, 0, len(payload.Data))
	for _, entry := range payload.Data {
		entries = append(entries, entry)
	}

	return entries, nil
}

// NormalizeOKXNetworks expects an array of chain entries using the venue's
// minWithdrawal/maxWithdrawal/withdrawalFee field names.
func NormalizeOKXNetworks(raw any) []entity.NetworkWithdrawInfo {
	entries, ok := asSlice(raw)
	if !ok {
		return []entity.NetworkWithdrawInfo{}
	}

	out := make([]entity.NetworkWithdrawInfo, 0, len(entries))
	for _, rawEntry := range entries {
		entry, ok := asMap(rawEntry)
		if !ok {
			continue
		}

		out = append(out, entity.NetworkWithdrawInfo{
			Network:        asString(entry["network"]),
			WithdrawStatus: asBool(entry["withdraw"]),
			DepositStatus:  asBool(entry["deposit"]),
			MinWithdraw:    asNullFloat(entry["minWithdrawal"]),
			MaxWithdraw:    asNullFloat(entry["maxWithdrawal"]),
			WithdrawFee:    feeOrZero(entry["withdrawalFee"]),
			WithdrawMemo:   nonEmptyString(entry["memoRegex"]),
			ChainID:        strings.ToUpper(asString(entry["chain"])),
			Precision:      networkPrecision(entry["precision"]),
		})
	}

	return sortNetworks(out)
}
