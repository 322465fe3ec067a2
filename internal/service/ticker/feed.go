package ticker

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	feedReconnectMinDelay = 1 * time.Second
	feedReconnectMaxDelay = 15 * time.Second

	feedCacheKeyPrefix = "portfolio:ticker:last:"
	feedCacheTTL       = 10 * time.Minute
)

// Feed maintains a MapSource from a websocket ticker stream, reconnecting
// with capped exponential backoff. An optional redis client mirrors last
// prices so a restarted process can serve stale-but-recent fallbacks.
type Feed struct {
	wsURL  string
	store  *MapSource
	cache  *redis.Client
	dialer *websocket.Dialer
}

func NewFeed(wsURL string, store *MapSource, cache *redis.Client) *Feed {
	return &Feed{
		wsURL:  strings.TrimSpace(wsURL),
		store:  store,
		cache:  cache,
		dialer: websocket.DefaultDialer,
	}
}

func (f *Feed) Last(currency string) (decimal.Decimal, bool) {
	return f.store.Last(currency)
}

type tickerMessage struct {
	Currency string `json:"currency"`
	Last     string `json:"last"`
}

// Run blocks until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	if f.wsURL == "" {
		logrus.Warn("ticker feed disabled: no ws url configured")
		return
	}

	delay := feedReconnectMinDelay
	for {
		if ctx.Err() != nil {
			return
		}

		err := f.readLoop(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logrus.Errorf("ticker feed disconnected: %v", err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}

		delay *= 2
		if delay > feedReconnectMaxDelay {
			delay = feedReconnectMaxDelay
		}
	}
}

func (f *Feed) readLoop(ctx context.Context) error {
	logrus.Infof("ticker feed connecting to %s", f.wsURL)

	conn, _, err := f.dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		f.handleMessage(ctx, message)
	}
}

func (f *Feed) handleMessage(ctx context.Context, message []byte) {
	var payload tickerMessage
	if err := json.Unmarshal(message, &payload); err != nil {
		logrus.Debugf("skipping malformed ticker message: %v", err)
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(payload.Currency))
	if currency == "" {
		return
	}

	last, err := decimal.NewFromString(strings.TrimSpace(payload.Last))
	if err != nil {
		return
	}

	f.store.Set(currency, last)

	if f.cache != nil {
		err := f.cache.Set(ctx, feedCacheKeyPrefix+currency, last.String(), feedCacheTTL).Err()
		if err != nil {
			logrus.Debugf("ticker cache write failed: %v", err)
		}
	}
}
