package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"content_metrics/internal/domain"
)

type AuthorStore interface {
	EnsureBatch(ctx context.Context, authors []domain.Author) (map[string]int64, error)
}

type ContentStore interface {
	Upsert(ctx context.Context, content *domain.Content) (int64, bool, error)
}

type ContentReader interface {
	List(ctx context.Context, q domain.ContentQuery) (*domain.ContentPage, error)
	Stats(ctx context.Context, filter domain.ContentFilter, now time.Time) (*domain.ContentStats, error)
}

type TagStore interface {
	EnsureBatch(ctx context.Context, names []string) (map[string]int64, error)
	Link(ctx context.Context, links []domain.ContentTagLink) error
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, content *domain.Content, isNew bool) error
	Close() error
}

type Source interface {
	ID() string
	Name() string
	FetchRecords(ctx context.Context) ([]domain.ContentRecord, error)
}

type Ingester interface {
	ValidateRecord(index int, record domain.ContentRecord) []domain.FieldError
	Ingest(ctx context.Context, records []domain.ContentRecord) (*domain.IngestStats, error)
}
