package domain

import "time"

// IngestStats holds statistics about one committed ingestion batch.
type IngestStats struct {
	Records   int
	Created   int
	Updated   int
	Authors   int
	Tags      int
	Published int
	Attempts  int
	Duration  time.Duration
}

// PullStats holds statistics about a feed pull.
type PullStats struct {
	SourceID string
	Fetched  int
	Invalid  int
	Created  int
	Updated  int
	Duration time.Duration
}

type SyncState struct {
	ID           int64     `db:"id"`
	SourceID     string    `db:"source_id"`
	LastSyncedAt time.Time `db:"last_synced_at"`
	LastCount    int64     `db:"last_count"`
	TotalSynced  int64     `db:"total_synced"`
}
