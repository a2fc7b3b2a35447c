package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"content_metrics/internal/domain"
)

type ContentStore struct {
	db *sqlx.DB
}

func NewContentStore(db *sqlx.DB) *ContentStore {
	return &ContentStore{db: db}
}

// Upsert inserts the content or overwrites the existing row with the same
// unique_id. The row lock taken by ON CONFLICT orders concurrent writers, so
// the last committed write wins. published_at keeps its first known value.
func (s *ContentStore) Upsert(ctx context.Context, content *domain.Content) (int64, bool, error) {
	query := `
		INSERT INTO contents (
			author_id, unique_id, url, title, like_count, comment_count,
			view_count, share_count, thumbnail_url, published_at, big_metadata, secret_value
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (unique_id) DO UPDATE SET
			author_id = EXCLUDED.author_id,
			url = CASE WHEN EXCLUDED.url = '' THEN contents.url ELSE EXCLUDED.url END,
			title = EXCLUDED.title,
			like_count = EXCLUDED.like_count,
			comment_count = EXCLUDED.comment_count,
			view_count = EXCLUDED.view_count,
			share_count = EXCLUDED.share_count,
			thumbnail_url = EXCLUDED.thumbnail_url,
			published_at = COALESCE(contents.published_at, EXCLUDED.published_at),
			big_metadata = COALESCE(EXCLUDED.big_metadata, contents.big_metadata),
			secret_value = COALESCE(EXCLUDED.secret_value, contents.secret_value)
		RETURNING id, (xmax = 0) AS inserted`

	var (
		id       int64
		inserted bool
	)
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		content.AuthorID,
		content.UniqueID,
		content.URL,
		content.Title,
		content.LikeCount,
		content.CommentCount,
		content.ViewCount,
		content.ShareCount,
		content.ThumbnailURL,
		content.PublishedAt,
		jsonArg(content.ExtendedMetadata),
		jsonArg(content.RestrictedMetadata),
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, err
	}

	return id, inserted, nil
}
