//go:build integration

package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"content_metrics/internal/domain"
)

// Lookups the integration tests use to inspect stored rows.

// GetByUniqueID returns the author with the given external id, or nil when absent.
func (s *AuthorStore) GetByUniqueID(ctx context.Context, uniqueID string) (*domain.AuthorView, error) {
	var author domain.AuthorView
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &author, `
		SELECT id, name, username, unique_id, url, title,
			COALESCE(big_metadata, 'null'::jsonb) AS big_metadata, followers
		FROM authors
		WHERE unique_id = $1`, uniqueID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// GetByUniqueID returns the content with the given external id, or nil when absent.
// Metadata blobs are not loaded.
func (s *ContentStore) GetByUniqueID(ctx context.Context, uniqueID string) (*domain.Content, error) {
	var content domain.Content
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &content, `
		SELECT id, author_id, unique_id, url, title, like_count, comment_count,
			view_count, share_count, thumbnail_url, published_at
		FROM contents
		WHERE unique_id = $1`, uniqueID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (s *TagStore) GetByContentID(ctx context.Context, contentID int64) ([]domain.Tag, error) {
	query := `
		SELECT t.id, t.name, t.description
		FROM tags t
		INNER JOIN content_tags ct ON ct.tag_id = t.id
		WHERE ct.content_id = $1
		ORDER BY t.name`

	var tags []domain.Tag
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &tags, query, contentID)
	return tags, err
}
