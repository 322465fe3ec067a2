package ticker

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Source provides the last known USD price for a currency code. It is
// injected into consumers at construction; there is no process-wide ticker
// singleton.
type Source interface {
	Last(currency string) (decimal.Decimal, bool)
}

// MapSource is an in-memory Source, safe for concurrent use. It backs the
// live websocket feed and doubles as a fake in tests.
type MapSource struct {
	mu   sync.RWMutex
	last map[string]decimal.Decimal
}

func NewMapSource() *MapSource {
	return &MapSource{last: make(map[string]decimal.Decimal)}
}

func (s *MapSource) Set(currency string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[currency] = price
}

func (s *MapSource) Last(currency string) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.last[currency]
	return price, ok
}
