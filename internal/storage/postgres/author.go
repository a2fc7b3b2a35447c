package postgres

import (
	"context"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"content_metrics/internal/domain"
)

type AuthorStore struct {
	db *sqlx.DB
}

func NewAuthorStore(db *sqlx.DB) *AuthorStore {
	return &AuthorStore{db: db}
}

const authorCols = 7

// maxAuthorRows keeps one insert statement under the bind parameter limit.
const maxAuthorRows = maxBindParams / authorCols

// EnsureBatch creates the authors that do not exist yet and returns the ids of
// all of them keyed by unique_id. Existing rows are left untouched.
func (s *AuthorStore) EnsureBatch(ctx context.Context, authors []domain.Author) (map[string]int64, error) {
	if len(authors) == 0 {
		return map[string]int64{}, nil
	}

	// Rows are inserted in key order so concurrent batches lock them in the same order.
	sorted := make([]domain.Author, len(authors))
	copy(sorted, authors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UniqueID < sorted[j].UniqueID })

	exec := GetExecutor(ctx, s.db)
	keys := make([]string, 0, len(sorted))
	for start := 0; start < len(sorted); start += maxAuthorRows {
		chunk := sorted[start:min(start+maxAuthorRows, len(sorted))]
		if err := insertAuthors(ctx, exec, chunk); err != nil {
			return nil, err
		}
		for _, a := range chunk {
			keys = append(keys, a.UniqueID)
		}
	}

	var rows []struct {
		ID       int64  `db:"id"`
		UniqueID string `db:"unique_id"`
	}
	if err := sqlx.SelectContext(ctx, exec, &rows,
		"SELECT id, unique_id FROM authors WHERE unique_id = ANY($1)",
		pq.Array(keys),
	); err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(rows))
	for _, r := range rows {
		ids[r.UniqueID] = r.ID
	}
	return ids, nil
}

func insertAuthors(ctx context.Context, exec sqlx.ExtContext, authors []domain.Author) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO authors (unique_id, username, name, url, title, big_metadata, secret_value) VALUES ")
	valueArgs := make([]interface{}, 0, len(authors)*authorCols)

	for i, a := range authors {
		if i > 0 {
			sb.WriteString(", ")
		}
		writePlaceholders(&sb, i*authorCols+1, authorCols)
		valueArgs = append(valueArgs,
			a.UniqueID,
			a.Username,
			a.DisplayName,
			a.ProfileURL,
			a.Title,
			jsonArg(a.ExtendedMetadata),
			jsonArg(a.RestrictedMetadata),
		)
	}
	sb.WriteString(" ON CONFLICT (unique_id) DO NOTHING")

	_, err := exec.ExecContext(ctx, sb.String(), valueArgs...)
	return err
}
