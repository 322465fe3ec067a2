package pnl

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/krobus00/portfolio-service/internal/config"
	"github.com/krobus00/portfolio-service/internal/constant"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/krobus00/portfolio-service/internal/service/ticker"
	"github.com/krobus00/portfolio-service/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrComputeSnapshotFailed = errors.New("failed to compute pnl snapshot")
	ErrPersistSnapshotFailed = errors.New("failed to persist pnl snapshot")
	ErrPublishSnapshotFailed = errors.New("failed to publish pnl snapshot event")
	ErrInvalidUserID         = errors.New("user id is required")
	ErrFetchEcoTokensFailed  = errors.New("failed to fetch ecosystem tokens")
	ErrFetchSnapshotsFailed  = errors.New("failed to fetch pnl snapshots")
)

const (
	chartWindowDays = 28
	chartBucketDays = 7
	chartBuckets    = chartWindowDays / chartBucketDays
)

type WalletStore interface {
	GetByUserID(ctx context.Context, userID string) ([]entity.Wallet, error)
}

type SnapshotStore interface {
	UpsertDaily(ctx context.Context, data *entity.WalletPnl) error
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*entity.WalletPnl, error)
	GetRange(ctx context.Context, userID string, from, to time.Time) ([]entity.WalletPnl, error)
}

type PriceStore interface {
	GetFiatPrices(ctx context.Context) (map[string]decimal.Decimal, error)
	GetExchangePrices(ctx context.Context) (map[string]decimal.Decimal, error)
	ListEcosystemTokens(ctx context.Context) ([]entity.EcosystemToken, error)
}

type Service struct {
	walletStore   WalletStore
	snapshotStore SnapshotStore
	priceStore    PriceStore
	tickers       ticker.Source
	js            nats.JetStreamContext

	now func() time.Time
}

func NewService(walletStore WalletStore, snapshotStore SnapshotStore, priceStore PriceStore, tickers ticker.Source, js nats.JetStreamContext) *Service {
	return &Service{
		walletStore:   walletStore,
		snapshotStore: snapshotStore,
		priceStore:    priceStore,
		tickers:       tickers,
		js:            js,
		now:           time.Now,
	}
}

// ComputeSnapshot values every wallet of the user and accumulates
// price*balance into the bucket for the wallet's type. All seven buckets are
// always present; unresolvable prices contribute the chain's default, never
// an error.
func (s *Service) ComputeSnapshot(ctx context.Context, userID string) (entity.PnlBalances, error) {
	wallets, err := s.walletStore.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fiatPrices, err := s.priceStore.GetFiatPrices(ctx)
	if err != nil {
		return nil, err
	}

	exchangePrices, err := s.priceStore.GetExchangePrices(ctx)
	if err != nil {
		return nil, err
	}

	book := priceBook{
		fiat:     fiatPrices,
		exchange: exchangePrices,
		tickers:  s.tickers,
	}

	balances := zeroBalances()
	for _, wallet := range wallets {
		if !entity.ValidWalletType(wallet.Type) {
			logrus.WithFields(logrus.Fields{
				"wallet_id": wallet.ID,
				"type":      wallet.Type,
			}).Warn("skipping wallet with unknown type")
			continue
		}

		price := book.resolve(wallet.Type, wallet.Currency)
		balances[wallet.Type] = balances[wallet.Type].Add(price.Mul(wallet.Balance))
	}

	return balances, nil
}

// UpsertToday writes the snapshot row for the current UTC day, overwriting a
// same-day row if one exists.
func (s *Service) UpsertToday(ctx context.Context, userID string, balances entity.PnlBalances) (*entity.WalletPnl, error) {
	now := s.now().UTC()

	snapshot := &entity.WalletPnl{
		UserID:    userID,
		Balances:  balances,
		CreatedAt: truncateDay(now),
		UpdatedAt: now,
	}

	if err := s.snapshotStore.UpsertDaily(ctx, snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// BuildDailySeries groups snapshots by UTC calendar day and sums per-type
// balances within each day. Days without a snapshot are absent.
func (s *Service) BuildDailySeries(ctx context.Context, userID string, from, to time.Time) (map[time.Time]entity.PnlBalances, error) {
	snapshots, err := s.snapshotStore.GetRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	series := make(map[time.Time]entity.PnlBalances, len(snapshots))
	for _, snapshot := range snapshots {
		day := truncateDay(snapshot.CreatedAt.UTC())

		bucket, ok := series[day]
		if !ok {
			bucket = zeroBalances()
		}
		for walletType, value := range snapshot.Balances {
			bucket[walletType] = bucket[walletType].Add(value)
		}
		series[day] = bucket
	}

	return series, nil
}

type ChartPoint struct {
	Date     string             `json:"date"`
	Balances entity.PnlBalances `json:"balances"`
}

// BuildWeeklyChart partitions the 28-day window ending today into four 7-day
// buckets anchored on the most recent Sunday on/before the window start.
// Days without a snapshot contribute zero.
func (s *Service) BuildWeeklyChart(ctx context.Context, userID string) ([]ChartPoint, error) {
	today := truncateDay(s.now().UTC())
	windowStart := today.AddDate(0, 0, -(chartWindowDays - 1))
	anchor := lastSunday(windowStart)

	series, err := s.BuildDailySeries(ctx, userID, anchor, today)
	if err != nil {
		return nil, err
	}

	points := make([]ChartPoint, 0, chartBuckets)
	for bucket := 0; bucket < chartBuckets; bucket++ {
		bucketStart := anchor.AddDate(0, 0, bucket*chartBucketDays)
		point := ChartPoint{
			Date:     bucketStart.Format("2006-01-02"),
			Balances: zeroBalances(),
		}

		for day := 0; day < chartBucketDays; day++ {
			balances, ok := series[bucketStart.AddDate(0, 0, day)]
			if !ok {
				continue
			}
			for walletType, value := range balances {
				point.Balances[walletType] = point.Balances[walletType].Add(value)
			}
		}

		points = append(points, point)
	}

	return points, nil
}

type PnlResult struct {
	Today     decimal.Decimal `json:"today"`
	Yesterday decimal.Decimal `json:"yesterday"`
	Pnl       decimal.Decimal `json:"pnl"`
	Chart     []ChartPoint    `json:"chart"`
}

// Pnl recomputes and persists today's snapshot, then reports it against
// yesterday's. The delta is a plain difference: transfers and withdrawals
// between the two snapshots are not netted out, so this is a daily
// approximation rather than ledger-grade pnl.
func (s *Service) Pnl(ctx context.Context, userID string) (*PnlResult, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	balances, err := s.ComputeSnapshot(ctx, userID)
	if err != nil {
		logrus.Error(err)
		return nil, ErrComputeSnapshotFailed
	}

	snapshot, err := s.UpsertToday(ctx, userID, balances)
	if err != nil {
		logrus.Error(err)
		return nil, ErrPersistSnapshotFailed
	}

	yesterday := decimal.Zero
	yesterdaySnapshot, err := s.snapshotStore.GetByUserAndDate(ctx, userID, snapshot.CreatedAt.AddDate(0, 0, -1))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logrus.Error(err)
		return nil, ErrFetchSnapshotsFailed
	}
	if yesterdaySnapshot != nil {
		yesterday = yesterdaySnapshot.Balances.Total()
	}

	chart, err := s.BuildWeeklyChart(ctx, userID)
	if err != nil {
		logrus.Error(err)
		return nil, ErrFetchSnapshotsFailed
	}

	today := snapshot.Balances.Total()

	return &PnlResult{
		Today:     today,
		Yesterday: yesterday,
		Pnl:       today.Sub(yesterday),
		Chart:     chart,
	}, nil
}

func (s *Service) EcoTokens(ctx context.Context) ([]entity.EcosystemToken, error) {
	tokens, err := s.priceStore.ListEcosystemTokens(ctx)
	if err != nil {
		logrus.Error(err)
		return nil, ErrFetchEcoTokensFailed
	}

	return tokens, nil
}

func (s *Service) JetstreamEventInit(ctx context.Context) error {
	streamConfig := &nats.StreamConfig{
		Name:      constant.PnlSnapshotStreamName,
		Subjects:  []string{constant.PnlSnapshotStreamSubjectAll},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
		MaxAge:    24 * time.Hour,
	}

	stream, err := s.js.StreamInfo(constant.PnlSnapshotStreamName, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		logrus.Error(err)
		return err
	}

	if stream == nil {
		logrus.Infof("creating stream: %s", constant.PnlSnapshotStreamName)
		_, err = s.js.AddStream(streamConfig, nats.Context(ctx))
		return err
	}

	logrus.Infof("updating stream: %s", constant.PnlSnapshotStreamName)
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
		constant.PnlSnapshotStreamSubjectRequest,
		constant.PnlSnapshotQueueName,
		func(msg *nats.Msg) {
			err := util.ProcessWithTimeout(config.Env.NatsJetstream.TimeoutHandler["pnl_snapshot"], msg, s.handleSnapshotEvent)
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
		nats.Durable(constant.PnlSnapshotQueueGroup),
	)

	return err
}

// RequestSnapshotAsync queues a snapshot precompute for a user, so a daily
// baseline exists even when the user never hits the pnl read that day.
func (s *Service) RequestSnapshotAsync(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidUserID
	}

	event := entity.PnlSnapshotRequestedEvent{
		RequestID: uuid.NewString(),
		UserID:    userID,
	}

	err := util.PublishEvent(s.js, constant.PnlSnapshotStreamSubjectRequest, event)
	if err != nil {
		logrus.Error(err)
		return "", ErrPublishSnapshotFailed
	}

	return event.RequestID, nil
}

func (s *Service) handleSnapshotEvent(ctx context.Context, msg *nats.Msg) error {
	var event entity.PnlSnapshotRequestedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logrus.Error(err)
		return err
	}

	balances, err := s.ComputeSnapshot(ctx, event.UserID)
	if err != nil {
		logrus.Error(err)
		return err
	}

	_, err = s.UpsertToday(ctx, event.UserID, balances)
	if err != nil {
		logrus.Error(err)
		return err
	}

	logrus.WithFields(logrus.Fields{
		"request_id": event.RequestID,
		"user_id":    event.UserID,
	}).Info("pnl snapshot computed")

	return nil
}

func zeroBalances() entity.PnlBalances {
	balances := make(entity.PnlBalances, len(entity.AllWalletTypes))
	for _, walletType := range entity.AllWalletTypes {
		balances[walletType] = decimal.Zero
	}
	return balances
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func lastSunday(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}
