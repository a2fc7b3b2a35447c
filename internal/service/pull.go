package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"content_metrics/internal/domain"
)

// PullService copies the external feed into the store through the ingester,
// at most batchSize records per transaction.
type PullService struct {
	source    Source
	ingester  Ingester
	syncState SyncStateStore
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func NewPullService(
	source Source,
	ingester Ingester,
	syncState SyncStateStore,
	batchSize int,
	logger *slog.Logger,
) *PullService {
	return &PullService{
		source:    source,
		ingester:  ingester,
		syncState: syncState,
		batchSize: batchSize,
		logger:    logger.With("source", source.ID()),
		now:       time.Now,
	}
}

func (s *PullService) Pull(ctx context.Context) (*domain.PullStats, error) {
	startTime := s.now()
	s.logger.Info("starting pull", "source_name", s.source.Name())

	records, err := s.source.FetchRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	s.logger.Info("fetched records from source", "count", len(records))

	stats := &domain.PullStats{
		SourceID: s.source.ID(),
		Fetched:  len(records),
	}

	// One bad feed item must not hold back the rest of the feed.
	valid := make([]domain.ContentRecord, 0, len(records))
	for i, r := range records {
		if fields := s.ingester.ValidateRecord(i, r); len(fields) > 0 {
			stats.Invalid++
			s.logger.Warn("skipping invalid record",
				"index", i,
				"unique_id", r.UniqueID,
				"error", (&domain.ValidationError{Fields: fields}).Error(),
			)
			continue
		}
		valid = append(valid, r)
	}

	for _, chunk := range chunkRecords(valid, s.batchSize) {
		ingested, err := s.ingester.Ingest(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("ingest records: %w", err)
		}
		stats.Created += ingested.Created
		stats.Updated += ingested.Updated
	}

	if err := s.updateSyncState(ctx, stats); err != nil {
		return stats, fmt.Errorf("update sync state: %w", err)
	}

	stats.Duration = s.now().Sub(startTime)

	s.logger.Info("pull completed",
		"fetched", stats.Fetched,
		"invalid", stats.Invalid,
		"created", stats.Created,
		"updated", stats.Updated,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *PullService) updateSyncState(ctx context.Context, stats *domain.PullStats) error {
	state, err := s.syncState.Get(ctx, s.source.ID())
	if err != nil {
		return err
	}

	synced := int64(stats.Created + stats.Updated)
	state.SourceID = s.source.ID()
	state.LastSyncedAt = s.now()
	state.LastCount = synced
	state.TotalSynced += synced

	return s.syncState.Update(ctx, state)
}

// chunkRecords splits records into consecutive batches of at most size
// records. A size below 1 keeps everything in one batch.
func chunkRecords(records []domain.ContentRecord, size int) [][]domain.ContentRecord {
	if len(records) == 0 {
		return nil
	}
	if size < 1 || len(records) <= size {
		return [][]domain.ContentRecord{records}
	}

	chunks := make([][]domain.ContentRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
