package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/krobus00/portfolio-service/internal/config"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/krobus00/portfolio-service/internal/service/market"
	"github.com/krobus00/portfolio-service/internal/service/pnl"
	"github.com/krobus00/portfolio-service/internal/service/venue"
)

var (
	errAPIKeyMissing  = errors.New("api key is required")
	errAPIKeyInvalid  = errors.New("invalid api key")
	errAPIKeyInactive = errors.New("api key is inactive")
	errAPIKeyExpired  = errors.New("api key is expired")
)

type ImportMarketsRequest struct {
	ApiKey string `json:"api_key"`
	Venue  string `json:"venue"`
	Async  bool   `json:"async"`
}

type ImportMarketsAsyncResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

type WithdrawInfoRequest struct {
	Venue   string `json:"venue"`
	Payload any    `json:"payload"`
}

type WithdrawInfoResponse struct {
	Venue    string                       `json:"venue"`
	Networks []entity.NetworkWithdrawInfo `json:"networks"`
}

type Handler struct {
	marketService *market.Service
	pnlService    *pnl.Service
}

func NewPortfolioHTTPHandler(marketService *market.Service, pnlService *pnl.Service) *Handler {
	return &Handler{
		marketService: marketService,
		pnlService:    pnlService,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/portfolio/v1/admin/markets/import", h.ImportMarkets)
	mux.HandleFunc("/portfolio/v1/pnl", h.Pnl)
	mux.HandleFunc("/portfolio/v1/pnl/snapshot", h.RequestSnapshot)
	mux.HandleFunc("/portfolio/v1/withdraw-info", h.WithdrawInfo)
	mux.HandleFunc("/portfolio/v1/venues/{venue}/currencies/{code}/networks", h.VenueNetworks)
	mux.HandleFunc("/portfolio/v1/eco/tokens", h.EcoTokens)
}

func (h *Handler) ImportMarkets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	defer r.Body.Close()

	var req ImportMarketsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}

	if err := validateAPIKey(resolveAPIKey(r, req.ApiKey)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
		return
	}

	if req.Async {
		requestID, err := h.marketService.ImportMarketsAsync(r.Context(), req.Venue)
		if err != nil {
			writeImportError(w, err)
			return
		}

		writeJSON(w, http.StatusAccepted, ImportMarketsAsyncResponse{
			RequestID: requestID,
			Status:    "queued",
		})
		return
	}

	summary, err := h.marketService.ImportMarkets(r.Context(), req.Venue)
	if err != nil {
		writeImportError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeImportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrVenueNotFound), errors.Is(err, market.ErrNoActiveVenue):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.Is(err, market.ErrUnsupportedVenue):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, market.ErrImportInProgress):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
	case errors.Is(err, market.ErrLoadMarketsFailed), errors.Is(err, market.ErrPublishImportFailed):
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
	}
}

func (h *Handler) Pnl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))

	result, err := h.pnlService.Pnl(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, pnl.ErrInvalidUserID):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// WithdrawInfo normalizes a venue currency payload into standardized
// per-chain withdraw metadata. An unknown venue or unusable payload yields an
// empty list, not an error.
func (h *Handler) WithdrawInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	defer r.Body.Close()

	var req WithdrawInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}

	venueName := entity.VenueName(strings.ToLower(strings.TrimSpace(req.Venue)))
	if venueName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "venue is required"})
		return
	}

	writeJSON(w, http.StatusOK, WithdrawInfoResponse{
		Venue:    string(venueName),
		Networks: venue.NormalizeNetworks(venueName, req.Payload),
	})
}

// VenueNetworks fetches the raw currency payload from a started venue client
// and returns the normalized per-chain withdraw metadata.
func (h *Handler) VenueNetworks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	venueName := entity.VenueName(strings.ToLower(strings.TrimSpace(r.PathValue("venue"))))
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	if venueName == "" || code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "venue and currency code are required"})
		return
	}

	client, ok := venue.ResolveVenue(venueName)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "venue not found"})
		return
	}

	raw, err := client.FetchCurrency(r.Context(), code)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "failed to fetch currency from venue"})
		return
	}

	writeJSON(w, http.StatusOK, WithdrawInfoResponse{
		Venue:    string(venueName),
		Networks: venue.NormalizeNetworks(venueName, raw),
	})
}

type SnapshotAsyncRequest struct {
	UserID string `json:"user_id"`
}

type SnapshotAsyncResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// RequestSnapshot queues a snapshot precompute so a daily baseline row exists
// for users who never hit the pnl read that day.
func (h *Handler) RequestSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	defer r.Body.Close()

	var req SnapshotAsyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}

	requestID, err := h.pnlService.RequestSnapshotAsync(r.Context(), strings.TrimSpace(req.UserID))
	if err != nil {
		switch {
		case errors.Is(err, pnl.ErrInvalidUserID):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		case errors.Is(err, pnl.ErrPublishSnapshotFailed):
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusAccepted, SnapshotAsyncResponse{
		RequestID: requestID,
		Status:    "queued",
	})
}

func (h *Handler) EcoTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	tokens, err := h.pnlService.EcoTokens(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveAPIKey(r *http.Request, bodyKey string) string {
	if headerKey := strings.TrimSpace(r.Header.Get("X-API-Key")); headerKey != "" {
		return headerKey
	}

	return strings.TrimSpace(bodyKey)
}

func validateAPIKey(rawAPIKey string) error {
	apiKey := strings.TrimSpace(rawAPIKey)
	if apiKey == "" {
		return errAPIKeyMissing
	}

	if config.Env == nil || len(config.Env.APIKeys) == 0 {
		return errAPIKeyInvalid
	}

	now := time.Now().UTC()
	for _, candidate := range config.Env.APIKeys {
		storedKey := strings.TrimSpace(candidate.Key)
		if storedKey == "" {
			continue
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(storedKey)) != 1 {
			continue
		}

		if !candidate.Active {
			return errAPIKeyInactive
		}

		expiredAt, hasExpiry, err := parseExpiry(candidate.ExpiredAt)
		if err != nil {
			return errAPIKeyInvalid
		}
		if !hasExpiry {
			return nil
		}

		if !now.Before(expiredAt) {
			return errAPIKeyExpired
		}

		return nil
	}

	return errAPIKeyInvalid
}

func parseExpiry(value any) (time.Time, bool, error) {
	if value == nil {
		return time.Time{}, false, nil
	}

	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false, nil
		}
		return v.UTC(), true, nil
	case string:
		raw := strings.TrimSpace(v)
		if raw == "" {
			return time.Time{}, false, nil
		}

		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return parsed.UTC(), true, nil
		}

		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, false, err
		}

		return parsed.UTC().Add(24 * time.Hour), true, nil
	default:
		return time.Time{}, false, errors.New("unsupported expiry type")
	}
}
