package postgres

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"content_metrics/internal/domain"
)

type TagStore struct {
	db *sqlx.DB
}

func NewTagStore(db *sqlx.DB) *TagStore {
	return &TagStore{db: db}
}

// EnsureBatch creates missing tags and returns the ids of all names given.
func (s *TagStore) EnsureBatch(ctx context.Context, names []string) (map[string]int64, error) {
	if len(names) == 0 {
		return map[string]int64{}, nil
	}

	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	exec := GetExecutor(ctx, s.db)

	// unnest WITH ORDINALITY keeps the sorted insert order.
	_, err := exec.ExecContext(ctx, `
		INSERT INTO tags (name)
		SELECT n.name FROM unnest($1::text[]) WITH ORDINALITY AS n(name, ord)
		ORDER BY n.ord
		ON CONFLICT (name) DO NOTHING`,
		pq.Array(sorted),
	)
	if err != nil {
		return nil, err
	}

	var tags []domain.Tag
	if err := sqlx.SelectContext(ctx, exec, &tags,
		"SELECT id, name, description FROM tags WHERE name = ANY($1)",
		pq.Array(sorted),
	); err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(tags))
	for _, t := range tags {
		ids[t.Name] = t.ID
	}
	return ids, nil
}

// Link associates contents with tags. Pairs that are already linked are left as they are.
func (s *TagStore) Link(ctx context.Context, links []domain.ContentTagLink) error {
	if len(links) == 0 {
		return nil
	}

	sorted := make([]domain.ContentTagLink, len(links))
	copy(sorted, links)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ContentID != sorted[j].ContentID {
			return sorted[i].ContentID < sorted[j].ContentID
		}
		return sorted[i].TagID < sorted[j].TagID
	})

	contentIDs := make([]int64, len(sorted))
	tagIDs := make([]int64, len(sorted))
	for i, l := range sorted {
		contentIDs[i] = l.ContentID
		tagIDs[i] = l.TagID
	}

	// Two array parameters whatever the batch size; the ordinality keeps the
	// sorted lock order.
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO content_tags (content_id, tag_id)
		SELECT l.content_id, l.tag_id
		FROM unnest($1::bigint[], $2::bigint[]) WITH ORDINALITY AS l(content_id, tag_id, ord)
		ORDER BY l.ord
		ON CONFLICT (content_id, tag_id) DO NOTHING`,
		pq.Array(contentIDs),
		pq.Array(tagIDs),
	)
	return err
}
