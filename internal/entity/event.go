package entity

import "context"

type Publisher interface {
	JetstreamEventInit(ctx context.Context) error
}

type Subscriber interface {
	JetstreamEventSubscribe(ctx context.Context) error
}

type MarketImportRequestedEvent struct {
	RequestID  string `json:"request_id"`
	Venue      string `json:"venue"`
	RetryCount int    `json:"retry"`
}

type MarketImportedEvent struct {
	Venue    string `json:"venue"`
	Imported int    `json:"imported"`
	Created  int    `json:"created"`
	Deleted  int    `json:"deleted"`
}

type PnlSnapshotRequestedEvent struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
}
