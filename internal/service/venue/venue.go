package venue

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/krobus00/portfolio-service/internal/util"
)

// GlobalVenueRegistry holds every started venue client keyed by venue name.
var GlobalVenueRegistry = make(map[entity.VenueName]entity.VenueClient)

func RegisterVenue(name entity.VenueName, client entity.VenueClient) {
	GlobalVenueRegistry[name] = client
}

func ResolveVenue(name entity.VenueName) (entity.VenueClient, bool) {
	client, ok := GlobalVenueRegistry[name]
	return client, ok
}

// NetworkNormalizer translates one venue's raw currency payload into the
// standardized per-chain withdraw metadata. Normalizers are total: a payload
// in an unexpected shape yields an empty slice, never an error, so one
// malformed venue response cannot abort a multi-venue aggregation.
type NetworkNormalizer func(raw any) []entity.NetworkWithdrawInfo

var networkNormalizers = map[entity.VenueName]NetworkNormalizer{
	entity.VenueBinance: NormalizeBinanceNetworks,
	entity.VenueKucoin:  NormalizeKucoinNetworks,
	entity.VenueXT:      NormalizeXTNetworks,
	entity.VenueOKX:     NormalizeOKXNetworks,
}

func NormalizeNetworks(name entity.VenueName, raw any) []entity.NetworkWithdrawInfo {
	normalizer, ok := networkNormalizers[name]
	if !ok {
		return []entity.NetworkWithdrawInfo{}
	}

	return normalizer(raw)
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	default:
		return false
	}
}

// asFloat coerces venue numerics, which arrive as JSON numbers or strings.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func asNullFloat(v any) null.Float {
	parsed, ok := asFloat(v)
	if !ok {
		return null.Float{}
	}
	return null.FloatFrom(parsed)
}

func feeOrZero(v any) float64 {
	parsed, ok := asFloat(v)
	if !ok {
		return 0
	}
	return parsed
}

func nonEmptyString(v any) bool {
	return strings.TrimSpace(asString(v)) != ""
}

// networkPrecision interprets a venue precision field as decimal places.
// Venues report either a digit count (8) or a minimum increment (1e-8).
func networkPrecision(v any) int {
	f, ok := asFloat(v)
	if !ok || f <= 0 {
		return entity.MaxPrecision
	}

	if f >= 1 && f == math.Trunc(f) {
		if int(f) > entity.MaxPrecision {
			return entity.MaxPrecision
		}
		return int(f)
	}

	return util.CountDecimals(f)
}

func sortNetworks(networks []entity.NetworkWithdrawInfo) []entity.NetworkWithdrawInfo {
	sort.Slice(networks, func(i, j int) bool {
		return networks[i].Network < networks[j].Network
	})
	return networks
}

func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
