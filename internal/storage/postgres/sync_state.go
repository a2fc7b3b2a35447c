package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"content_metrics/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

// Get returns the pull state of a source. A source that never ran gets a
// zero state with only SourceID set.
func (s *SyncStateStore) Get(ctx context.Context, sourceID string) (*domain.SyncState, error) {
	var state domain.SyncState
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, `
		SELECT id, source_id, last_synced_at, last_count, total_synced
		FROM sync_state
		WHERE source_id = $1`, sourceID)
	if isNoRows(err) {
		return &domain.SyncState{SourceID: sourceID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Update stores the state and sets state.ID to the stored row.
func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	return GetExecutor(ctx, s.db).QueryRowxContext(ctx, `
		INSERT INTO sync_state (source_id, last_synced_at, last_count, total_synced)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_id) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			last_count = EXCLUDED.last_count,
			total_synced = EXCLUDED.total_synced
		RETURNING id`,
		state.SourceID,
		state.LastSyncedAt,
		state.LastCount,
		state.TotalSynced,
	).Scan(&state.ID)
}
