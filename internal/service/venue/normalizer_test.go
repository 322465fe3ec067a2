package venue

import (
	"testing"

	"github.com/krobus00/portfolio-service/internal/entity"
)

func TestNormalizersDegradeOnWrongShape(t *testing.T) {
	normalizers := map[string]NetworkNormalizer{
		"binance": NormalizeBinanceNetworks,
		"kucoin":  NormalizeKucoinNetworks,
		"xt":      NormalizeXTNetworks,
		"okx":     NormalizeOKXNetworks,
	}

	inputs := map[string]any{
		"nil":          nil,
		"empty object": map[string]any{},
		"array":        []any{"unexpected"},
		"string":       "not a payload",
	}

	for venueName, normalize := range normalizers {
		for inputName, input := range inputs {
			t.Run(venueName+"/"+inputName, func(t *testing.T) {
				got := normalize(input)
				if got == nil {
					t.Fatal("expected empty slice, got nil")
				}
				if len(got) != 0 {
					t.Errorf("expected no networks, got %d", len(got))
				}
			})
		}
	}
}

func TestNormalizeBinanceNetworks(t *testing.T) {
	raw := map[string]any{
		"BEP20": map[string]any{
			"withdraw":  true,
			"deposit":   false,
			"precision": 1e-8,
			"info": map[string]any{
				"network":     "bsc",
				"withdrawMin": "0.01",
				"withdrawMax": "10000",
				"withdrawFee": "0.0005",
				"memoRegex":   "",
			},
		},
		"ERC20": map[string]any{
			"withdraw": false,
			"deposit":  true,
			"info": map[string]any{
				"network":     "eth",
				"withdrawFee": "not-a-number",
				"memoRegex":   "^[0-9A-Za-z]{1,120}$",
			},
		},
	}

	got := NormalizeBinanceNetworks(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 networks, got %d", len(got))
	}

	bep20 := got[0]
	if bep20.Network != "BEP20" {
		t.Fatalf("expected BEP20 first after sorting, got %s", bep20.Network)
	}
	if !bep20.WithdrawStatus || bep20.DepositStatus {
		t.Errorf("unexpected status flags: %+v", bep20)
	}
	if !bep20.MinWithdraw.Valid || bep20.MinWithdraw.Float64 != 0.01 {
		t.Errorf("unexpected min withdraw: %+v", bep20.MinWithdraw)
	}
	if !bep20.MaxWithdraw.Valid || bep20.MaxWithdraw.Float64 != 10000 {
		t.Errorf("unexpected max withdraw: %+v", bep20.MaxWithdraw)
	}
	if bep20.WithdrawFee != 0.0005 {
		t.Errorf("unexpected withdraw fee: %v", bep20.WithdrawFee)
	}
	if bep20.WithdrawMemo {
		t.Error("empty memoRegex must not set memo")
	}
	if bep20.ChainID != "BSC" {
		t.Errorf("unexpected chain id: %s", bep20.ChainID)
	}
	if bep20.Precision != 8 {
		t.Errorf("unexpected precision: %d", bep20.Precision)
	}

	erc20 := got[1]
	if !erc20.WithdrawMemo {
		t.Error("non-empty memoRegex must set memo")
	}
	if erc20.WithdrawFee != 0 {
		t.Errorf("invalid fee must default to 0, got %v", erc20.WithdrawFee)
	}
	if erc20.Precision != 8 {
		t.Errorf("missing precision must default to 8, got %d", erc20.Precision)
	}
}

func TestNormalizeKucoinNetworks(t *testing.T) {
	raw := map[string]any{
		"networks": []any{
			map[string]any{
				"network":         "TRC20",
				"id":              "trx",
				"withdraw":        true,
				"deposit":         true,
				"minWithdraw":     "10",
				"withdrawFee":     "1",
				"contractAddress": "TN3W4H6rK2ce4vX9YnFQHwKENnHjoxb3m9",
				"precision":       6,
			},
			map[string]any{
				"chainName":       "ERC20",
				"withdraw":        false,
				"deposit":         true,
				"contractAddress": "",
			},
		},
	}

	got := NormalizeKucoinNetworks(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 networks, got %d", len(got))
	}

	erc20, trc20 := got[0], got[1]

	if trc20.Network != "TRC20" {
		t.Fatalf("expected TRC20 second after sorting, got %s", trc20.Network)
	}
	if trc20.MaxWithdraw.Valid {
		t.Error("kucoin never reports max withdraw; expected null")
	}
	if !trc20.WithdrawMemo {
		t.Error("non-empty contractAddress must set memo")
	}
	if trc20.ChainID != "TRX" {
		t.Errorf("unexpected chain id: %s", trc20.ChainID)
	}
	if trc20.Precision != 6 {
		t.Errorf("unexpected precision: %d", trc20.Precision)
	}

	if erc20.Network != "ERC20" {
		t.Errorf("expected chainName fallback, got %s", erc20.Network)
	}
	if erc20.WithdrawMemo {
		t.Error("empty contractAddress must not set memo")
	}
	if erc20.WithdrawStatus {
		t.Error("unexpected withdraw status")
	}
}

func TestNormalizeXTNetworks(t *testing.T) {
	raw := map[string]any{
		"fee":       "0.8",
		"precision": 1e-6,
		"info":      map[string]any{},
		"networks": map[string]any{
			"tron": map[string]any{
				"withdrawStatus":    "1",
				"depositStatus":     "0",
				"withdrawMinAmount": "5",
			},
		},
	}

	got := NormalizeXTNetworks(raw)
	if len(got) != 1 {
		t.Fatalf("expected 1 network, got %d", len(got))
	}

	network := got[0]
	if !network.WithdrawStatus || network.DepositStatus {
		t.Errorf("string status flags parsed wrong: %+v", network)
	}
	if network.WithdrawFee != 0.8 {
		t.Errorf("unexpected fee: %v", network.WithdrawFee)
	}
	if network.WithdrawMemo {
		t.Error("xt provides no memo signal; memo must be false")
	}
	if network.ChainID != "TRON" {
		t.Errorf("unexpected chain id: %s", network.ChainID)
	}
	if network.Precision != 6 {
		t.Errorf("unexpected precision: %d", network.Precision)
	}

	raw["fee"] = "garbage"
	got = NormalizeXTNetworks(raw)
	if got[0].WithdrawFee != 0 {
		t.Errorf("invalid fee must default to 0, got %v", got[0].WithdrawFee)
	}
}

func TestNormalizeOKXNetworks(t *testing.T) {
	raw := []any{
		map[string]any{
			"network":       "Arbitrum One",
			"chain":         "usdt-arbitrum",
			"withdraw":      true,
			"deposit":       true,
			"minWithdrawal": "2",
			"maxWithdrawal": "2000000",
			"withdrawalFee": "0.1",
			"memoRegex":     "",
		},
	}

	got := NormalizeOKXNetworks(raw)
	if len(got) != 1 {
		t.Fatalf("expected 1 network, got %d", len(got))
	}

	network := got[0]
	if network.MinWithdraw.Float64 != 2 || network.MaxWithdraw.Float64 != 2000000 {
		t.Errorf("unexpected withdraw limits: %+v", network)
	}
	if network.WithdrawFee != 0.1 {
		t.Errorf("unexpected fee: %v", network.WithdrawFee)
	}
	if network.ChainID != "USDT-ARBITRUM" {
		t.Errorf("unexpected chain id: %s", network.ChainID)
	}
}

func TestNormalizeNetworksUnknownVenue(t *testing.T) {
	got := NormalizeNetworks(entity.VenueName("unknown"), map[string]any{})
	if len(got) != 0 {
		t.Errorf("unknown venue must normalize to empty, got %d entries", len(got))
	}
}
