package constant

const (
	MarketImportQueueName  = "market_import_queue"
	MarketImportQueueGroup = "market_import_group"

	MarketImportStreamName           = "market_import"
	MarketImportStreamSubjectAll     = "market_import.*"
	MarketImportStreamSubjectRequest = "market_import.request"
	MarketImportStreamSubjectDone    = "market_import.done"

	PnlSnapshotQueueName  = "pnl_snapshot_queue"
	PnlSnapshotQueueGroup = "pnl_snapshot_group"

	PnlSnapshotStreamName           = "pnl_snapshot"
	PnlSnapshotStreamSubjectAll     = "pnl_snapshot.*"
	PnlSnapshotStreamSubjectRequest = "pnl_snapshot.request"
)
