package market

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/krobus00/portfolio-service/internal/config"
	"github.com/krobus00/portfolio-service/internal/constant"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/krobus00/portfolio-service/internal/service/venue"
	"github.com/krobus00/portfolio-service/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

var (
	ErrVenueNotFound       = errors.New("venue not found")
	ErrNoActiveVenue       = errors.New("no active venue configured")
	ErrUnsupportedVenue    = errors.New("venue does not support market import, use the forex import instead")
	ErrImportInProgress    = errors.New("market import already in progress for this venue")
	ErrLoadMarketsFailed   = errors.New("failed to load markets from venue")
	ErrReconcileFailed     = errors.New("failed to reconcile markets")
	ErrPublishImportFailed = errors.New("failed to publish market import event")
)

const (
	defaultCostMin = 0.0001
	defaultCostMax = 9_000_000
)

// spotOnlyVenues list venues whose market feed mixes product types; only spot
// rows are importable from them.
var spotOnlyVenues = map[entity.VenueName]bool{
	entity.VenueBinance: true,
	entity.VenueKucoin:  true,
	entity.VenueXT:      true,
}

type MarketStore interface {
	GetByVenue(ctx context.Context, venue string) ([]entity.ExchangeMarket, error)
	ApplyReconciliation(ctx context.Context, venue string, create, update []entity.ExchangeMarket, remove []entity.SymbolPair) error
}

type ImportSummary struct {
	Venue   string `json:"venue"`
	Fetched int    `json:"fetched"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Deleted int    `json:"deleted"`
}

type Service struct {
	store        MarketStore
	lock         ImportLock
	js           nats.JetStreamContext
	defaultVenue entity.VenueName

	resolveVenue func(name entity.VenueName) (entity.VenueClient, bool)
}

func NewService(store MarketStore, lock ImportLock, js nats.JetStreamContext, defaultVenue string) *Service {
	return &Service{
		store:        store,
		lock:         lock,
		js:           js,
		defaultVenue: entity.VenueName(defaultVenue),
		resolveVenue: venue.ResolveVenue,
	}
}

// ImportMarkets fetches the venue's market list, canonicalizes it, and
// reconciles it against the stored rows in one transaction. An empty venue
// name means the configured default venue.
func (s *Service) ImportMarkets(ctx context.Context, venueName string) (*ImportSummary, error) {
	name := entity.VenueName(venueName)
	if name == "" {
		name = s.defaultVenue
	}
	if name == "" {
		return nil, ErrNoActiveVenue
	}
	if name == entity.VenueTwelveData {
		return nil, ErrUnsupportedVenue
	}

	client, ok := s.resolveVenue(name)
	if !ok {
		return nil, ErrVenueNotFound
	}

	acquired, err := s.lock.Acquire(ctx, string(name))
	if err != nil {
		logrus.Error(err)
		return nil, err
	}
	if !acquired {
		return nil, ErrImportInProgress
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), string(name)); err != nil {
			logrus.Errorf("failed to release import lock for %s: %v", name, err)
		}
	}()

	raw, err := client.LoadMarkets(ctx)
	if err != nil {
		logrus.Error(err)
		return nil, ErrLoadMarketsFailed
	}

	incoming := canonicalize(name, raw)

	existing, err := s.store.GetByVenue(ctx, string(name))
	if err != nil {
		logrus.Error(err)
		return nil, ErrReconcileFailed
	}

	create, update, remove := diffMarkets(existing, incoming)

	err = s.store.ApplyReconciliation(ctx, string(name), create, update, remove)
	if err != nil {
		logrus.Error(err)
		return nil, ErrReconcileFailed
	}

	summary := &ImportSummary{
		Venue:   string(name),
		Fetched: len(incoming),
		Created: len(create),
		Updated: len(update),
		Deleted: len(remove),
	}

	s.publishImported(summary)

	logrus.WithFields(logrus.Fields{
		"venue":   summary.Venue,
		"fetched": summary.Fetched,
		"created": summary.Created,
		"updated": summary.Updated,
		"deleted": summary.Deleted,
	}).Info("market import reconciled")

	return summary, nil
}

// canonicalize turns a venue market map into canonical rows, dropping markets
// that are inactive, are not spot on spot-only venues, or are missing either
// precision. Output order is deterministic.
func canonicalize(name entity.VenueName, raw map[string]entity.VenueMarket) []entity.ExchangeMarket {
	symbols := make([]string, 0, len(raw))
	for symbol := range raw {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	markets := make([]entity.ExchangeMarket, 0, len(raw))
	for _, symbol := range symbols {
		m := raw[symbol]

		if !m.Active {
			continue
		}
		if spotOnlyVenues[name] && m.Type != "spot" {
			continue
		}
		if !m.Precision.Price.Valid || !m.Precision.Amount.Valid {
			continue
		}
		if m.Base == "" || m.Quote == "" {
			continue
		}

		markets = append(markets, entity.ExchangeMarket{
			Venue:           string(name),
			Currency:        m.Base,
			Pair:            m.Quote,
			PricePrecision:  util.CountDecimals(m.Precision.Price.Float64),
			AmountPrecision: util.CountDecimals(m.Precision.Amount.Float64),
			Limits:          canonicalLimits(m.Limits),
			Taker:           m.Taker,
			Maker:           m.Maker,
		})
	}

	return markets
}

// canonicalLimits fills the bounds downstream order validation depends on
// when the venue omits them.
func canonicalLimits(l entity.VenueLimits) entity.MarketLimits {
	limits := entity.MarketLimits{
		Amount:   entity.LimitBand(l.Amount),
		Price:    entity.LimitBand(l.Price),
		Cost:     entity.LimitBand(l.Cost),
		Leverage: entity.LimitBand(l.Leverage),
	}

	if !limits.Amount.Min.Valid {
		limits.Amount.Min = null.FloatFrom(0)
	}
	if !limits.Cost.Min.Valid {
		limits.Cost.Min = null.FloatFrom(defaultCostMin)
	}
	if !limits.Cost.Max.Valid {
		limits.Cost.Max = null.FloatFrom(defaultCostMax)
	}

	return limits
}

// diffMarkets splits the incoming set against the stored set by (currency,
// pair): new pairs are created, vanished pairs removed, and pairs present in
// both get a metadata refresh that leaves status alone.
func diffMarkets(existing, incoming []entity.ExchangeMarket) (create, update []entity.ExchangeMarket, remove []entity.SymbolPair) {
	existingByPair := make(map[string]entity.ExchangeMarket, len(existing))
	for _, m := range existing {
		existingByPair[m.Symbol()] = m
	}

	incomingByPair := make(map[string]bool, len(incoming))
	for _, m := range incoming {
		incomingByPair[m.Symbol()] = true

		if _, ok := existingByPair[m.Symbol()]; ok {
			update = append(update, m)
		} else {
			create = append(create, m)
		}
	}

	for _, m := range existing {
		if !incomingByPair[m.Symbol()] {
			remove = append(remove, entity.SymbolPair{Currency: m.Currency, Pair: m.Pair})
		}
	}

	sort.Slice(remove, func(i, j int) bool {
		return remove[i].Symbol() < remove[j].Symbol()
	})

	return create, update, remove
}

func (s *Service) publishImported(summary *ImportSummary) {
	if s.js == nil {
		return
	}

	event := entity.MarketImportedEvent{
		Venue:    summary.Venue,
		Imported: summary.Fetched,
		Created:  summary.Created,
		Deleted:  summary.Deleted,
	}

	err := util.PublishEvent(s.js, constant.MarketImportStreamSubjectDone, event)
	if err != nil {
		logrus.Errorf("failed to publish market imported event: %v", err)
	}
}

// ImportMarketsAsync validates the venue up front, then queues the import for
// the worker. Lock contention is only discovered by the worker.
func (s *Service) ImportMarketsAsync(ctx context.Context, venueName string) (string, error) {
	name := entity.VenueName(venueName)
	if name == "" {
		name = s.defaultVenue
	}
	if name == "" {
		return "", ErrNoActiveVenue
	}
	if name == entity.VenueTwelveData {
		return "", ErrUnsupportedVenue
	}
	if _, ok := s.resolveVenue(name); !ok {
		return "", ErrVenueNotFound
	}

	event := entity.MarketImportRequestedEvent{
		RequestID: uuid.NewString(),
		Venue:     string(name),
	}

	err := util.PublishEvent(s.js, constant.MarketImportStreamSubjectRequest, event)
	if err != nil {
		logrus.Error(err)
		return "", ErrPublishImportFailed
	}

	return event.RequestID, nil
}

func (s *Service) JetstreamEventInit(ctx context.Context) error {
	streamConfig := &nats.StreamConfig{
		Name:      constant.MarketImportStreamName,
		Subjects:  []string{constant.MarketImportStreamSubjectAll},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
		MaxAge:    24 * time.Hour,
	}

	stream, err := s.js.StreamInfo(constant.MarketImportStreamName, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		logrus.Error(err)
		return err
	}

	if stream == nil {
		logrus.Infof("creating stream: %s", constant.MarketImportStreamName)
		_, err = s.js.AddStream(streamConfig, nats.Context(ctx))
		return err
	}

	logrus.Infof("updating stream: %s", constant.MarketImportStreamName)
	_, err = s.js.UpdateStream(streamConfig, nats.Context(ctx))
	if err != nil {
		logrus.Error(err)
		return err
	}

	return nil
}

func (s *Service) JetstreamEventSubscribe(ctx context.Context) error {
	err := s.JetstreamEventInit(ctx)
	if err != nil {
		logrus.Error(err)
		return err
	}

	_, err = s.js.QueueSubscribe(
		constant.MarketImportStreamSubjectRequest,
		constant.MarketImportQueueName,
		func(msg *nats.Msg) {
			err := util.ProcessWithTimeout(config.Env.NatsJetstream.TimeoutHandler["market_import"], msg, s.handleImportEvent)
			if err != nil {
				logrus.Errorf("error processing message: %v", err)
				return
			}

			err = msg.Ack()
			if err != nil {
				logrus.Errorf("failed to acknowledge message: %v", err)
				return
			}
		},
		nats.ManualAck(),
		nats.Durable(constant.MarketImportQueueGroup),
	)

	return err
}

func (s *Service) handleImportEvent(ctx context.Context, msg *nats.Msg) error {
	var event entity.MarketImportRequestedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logrus.Error(err)
		return err
	}

	summary, err := s.ImportMarkets(ctx, event.Venue)
	if errors.Is(err, ErrImportInProgress) {
		// Another worker holds the venue lock; drop the duplicate request.
		logrus.WithFields(logrus.Fields{
			"request_id": event.RequestID,
			"venue":      event.Venue,
		}).Warn("skipping market import, lock held")
		return nil
	}
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"request_id": event.RequestID,
		"venue":      summary.Venue,
	}).Info("market import request processed")

	return nil
}
