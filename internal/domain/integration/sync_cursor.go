package integration

import "time"

// Sync sources known to the platform.
const (
	SourceBank     = "bank"
	SourceExchange = "exchange"
	SourceUSDT     = "usdt"
)

// SyncCursor is the per-source state of a polling sync: when it last ran and
// how it ended. One row per source.
type SyncCursor struct {
	Source       string
	LastSyncedAt time.Time
	LastStatus   string
	LastError    string
	UpdatedAt    time.Time
}

// MarkSuccess records a completed sync.
func (c *SyncCursor) MarkSuccess(at time.Time) {
	c.LastSyncedAt = at
	c.LastStatus = "SUCCESS"
	c.LastError = ""
	c.UpdatedAt = at
}

// MarkFailure records a failed sync attempt without advancing the cursor.
func (c *SyncCursor) MarkFailure(at time.Time, err error) {
	c.LastStatus = "FAILED"
	c.LastError = err.Error()
	c.UpdatedAt = at
}
