package venue

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/krobus00/portfolio-service/internal/config"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/shopspring/decimal"
)

const binanceDefaultBaseURL = "https://api.binance.com"

type BinanceVenue struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	taker      decimal.Decimal
	maker      decimal.Decimal
	httpClient *http.Client
}

func InitBinanceVenue(cfg config.VenueConfig) *BinanceVenue {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = binanceDefaultBaseURL
	}

	v := &BinanceVenue{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		apiSecret:  strings.TrimSpace(cfg.APISecret),
		taker:      cfg.TakerFee,
		maker:      cfg.MakerFee,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	RegisterVenue(entity.VenueBinance, v)

	return v
}

func (v *BinanceVenue) Name() entity.VenueName {
	return entity.VenueBinance
}

type binanceExchangeInfo struct {
	Symbols []struct {
		Symbol               string           `json:"symbol"`
		Status               string           `json:"status"`
		BaseAsset            string           `json:"baseAsset"`
		QuoteAsset           string           `json:"quoteAsset"`
		IsSpotTradingAllowed bool             `json:"isSpotTradingAllowed"`
		Filters              []map[string]any `json:"filters"`
	} `json:"symbols"`
}

func (v *BinanceVenue) LoadMarkets(ctx context.Context) (map[string]entity.VenueMarket, error) {
	var payload binanceExchangeInfo
	err := getJSON(ctx, v.httpClient, v.baseURL+"/api/v3/exchangeInfo", nil, &payload)
	if err != nil {
		return nil, fmt.Errorf("binance load markets: %w", err)
	}

	markets := make(map[string]entity.VenueMarket, len(payload.Symbols))
	for _, s := range payload.Symbols {
		marketType := ""
		if s.IsSpotTradingAllowed {
			marketType = "spot"
		}

		market := entity.VenueMarket{
			Symbol: s.BaseAsset + "/" + s.QuoteAsset,
			Base:   s.BaseAsset,
			Quote:  s.QuoteAsset,
			Active: s.Status == "TRADING",
			Type:   marketType,
			Taker:  v.taker,
			Maker:  v.maker,
		}

		for _, filter := range s.Filters {
			switch asString(filter["filterType"]) {
			case "PRICE_FILTER":
				market.Precision.Price = asNullFloat(filter["tickSize"])
				market.Limits.Price = entity.LimitBand{
					Min: asNullFloat(filter["minPrice"]),
					Max: asNullFloat(filter["maxPrice"]),
				}
			case "LOT_SIZE":
				market.Precision.Amount = asNullFloat(filter["stepSize"])
				market.Limits.Amount = entity.LimitBand{
					Min: asNullFloat(filter["minQty"]),
					Max: asNullFloat(filter["maxQty"]),
				}
			case "NOTIONAL", "MIN_NOTIONAL":
				market.Limits.Cost.Min = asNullFloat(filter["minNotional"])
			}
		}

		markets[market.Symbol] = market
	}

	return markets, nil
}

type binanceCoinInfo struct {
	Coin        string           `json:"coin"`
	NetworkList []map[string]any `json:"networkList"`
}

// FetchCurrency returns the ccxt-like networks map the binance normalizer
// expects: entries keyed by network name with top-level withdraw/deposit
// flags and the raw venue entry under "info".
func (v *BinanceVenue) FetchCurrency(ctx context.Context, code string) (any, error) {
	endpoint := v.baseURL + "/sapi/v1/capital/config/getall?" + v.signQuery(url.Values{})

	var payload []binanceCoinInfo
	headers := map[string]string{"X-MBX-APIKEY": v.apiKey}
	err := getJSON(ctx, v.httpClient, endpoint, headers, &payload)
	if err != nil {
		return nil, fmt.Errorf("binance fetch currency %s: %w", code, err)
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	for _, coin := range payload {
		if !strings.EqualFold(coin.Coin, code) {
			continue
		}

		networks := make(map[string]any, len(coin.NetworkList))
		for _, network := range coin.NetworkList {
			name := asString(network["network"])
			if name == "" {
				continue
			}

			networks[name] = map[string]any{
				"withdraw":  network["withdrawEnable"],
				"deposit":   network["depositEnable"],
				"precision": network["withdrawIntegerMultiple"],
				"info":      network,
			}
		}

		return networks, nil
	}

	return nil, fmt.Errorf("binance currency %s not found", code)
}

func (v *BinanceVenue) signQuery(values url.Values) string {
	values.Set("timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()))
	query := values.Encode()

	mac := hmac.New(sha256.New, []byte(v.apiSecret))
	mac.Write([]byte(query))

	return query + "&signature=" + hex.EncodeToString(mac.Sum(nil))
}

// NormalizeBinanceNetworks expects an object keyed by network name with
// withdraw/deposit booleans at the top level and venue limits under "info".
func NormalizeBinanceNetworks(raw any) []entity.NetworkWithdrawInfo {
	networks, ok := asMap(raw)
	if !ok {
		return []entity.NetworkWithdrawInfo{}
	}

	out := make([]entity.NetworkWithdrawInfo, 0, len(networks))
	for name, rawEntry := range networks {
		entry, ok := asMap(rawEntry)
		if !ok {
			continue
		}

		info, _ := asMap(entry["info"])

		out = append(out, entity.NetworkWithdrawInfo{
			Network:        name,
			WithdrawStatus: asBool(entry["withdraw"]),
			DepositStatus:  asBool(entry["deposit"]),
			MinWithdraw:    asNullFloat(info["withdrawMin"]),
			MaxWithdraw:    asNullFloat(info["withdrawMax"]),
			WithdrawFee:    feeOrZero(info["withdrawFee"]),
			WithdrawMemo:   nonEmptyString(info["memoRegex"]),
			ChainID:        strings.ToUpper(asString(info["network"])),
			Precision:      networkPrecision(entry["precision"]),
		})
	}

	return sortNetworks(out)
}
