package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"content_metrics/internal/domain"
)

const contentsFrom = `
	FROM contents c
	INNER JOIN authors a ON a.id = c.author_id`

type contentRow struct {
	ID                int64          `db:"id"`
	UniqueID          string         `db:"unique_id"`
	URL               string         `db:"url"`
	Title             string         `db:"title"`
	LikeCount         int64          `db:"like_count"`
	CommentCount      int64          `db:"comment_count"`
	ViewCount         int64          `db:"view_count"`
	ShareCount        int64          `db:"share_count"`
	ThumbnailURL      *string        `db:"thumbnail_url"`
	PublishedAt       *time.Time     `db:"published_at"`
	AuthorID          int64          `db:"author_id"`
	AuthorName        string         `db:"author_name"`
	AuthorUsername    string         `db:"author_username"`
	AuthorUniqueID    string         `db:"author_unique_id"`
	AuthorURL         string         `db:"author_url"`
	AuthorTitle       string         `db:"author_title"`
	AuthorBigMetadata []byte         `db:"author_big_metadata"`
	AuthorFollowers   int64          `db:"author_followers"`
	Total             int64          `db:"total"`
	Tags              pq.StringArray `db:"tags"`
}

func (r contentRow) toView() domain.ContentView {
	engagement := domain.Engagement(r.LikeCount, r.CommentCount, r.ShareCount)
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return domain.ContentView{
		ID: r.ID,
		Author: domain.AuthorView{
			ID:               r.AuthorID,
			DisplayName:      r.AuthorName,
			Username:         r.AuthorUsername,
			UniqueID:         r.AuthorUniqueID,
			ProfileURL:       r.AuthorURL,
			Title:            r.AuthorTitle,
			ExtendedMetadata: json.RawMessage(r.AuthorBigMetadata),
			FollowerCount:    r.AuthorFollowers,
		},
		UniqueID:        r.UniqueID,
		URL:             r.URL,
		Title:           r.Title,
		LikeCount:       r.LikeCount,
		CommentCount:    r.CommentCount,
		ViewCount:       r.ViewCount,
		ShareCount:      r.ShareCount,
		ThumbnailURL:    r.ThumbnailURL,
		PublishedAt:     r.PublishedAt,
		TotalEngagement: engagement,
		EngagementRate:  domain.EngagementRate(engagement, r.ViewCount),
		Tags:            tags,
	}
}

// List returns one page of matching contents, newest first, with their
// authors and tag names, and the number of matching rows.
func (s *ContentStore) List(ctx context.Context, q domain.ContentQuery) (*domain.ContentPage, error) {
	pred := compileFilter(q.Filter, q.Now)

	query := fmt.Sprintf(`
		WITH page AS (
			SELECT
				c.id, c.unique_id, c.url, c.title,
				c.like_count, c.comment_count, c.view_count, c.share_count,
				c.thumbnail_url, c.published_at,
				a.id AS author_id,
				a.name AS author_name,
				a.username AS author_username,
				a.unique_id AS author_unique_id,
				a.url AS author_url,
				a.title AS author_title,
				COALESCE(a.big_metadata, 'null'::jsonb) AS author_big_metadata,
				a.followers AS author_followers,
				COUNT(*) OVER () AS total
			%s
			WHERE %s
			ORDER BY c.id DESC
			LIMIT %s OFFSET %s
		)
		SELECT page.*, COALESCE(tg.names, '{}') AS tags
		FROM page
		LEFT JOIN LATERAL (
			SELECT array_agg(t.name ORDER BY t.name) AS names
			FROM content_tags ct
			INNER JOIN tags t ON t.id = ct.tag_id
			WHERE ct.content_id = page.id
		) tg ON TRUE
		ORDER BY page.id DESC`,
		contentsFrom, pred.clause, pred.next(1), pred.next(2),
	)

	args := append(pred.args, q.Page.ItemsPerPage, q.Page.Offset())

	exec := GetExecutor(ctx, s.db)

	var rows []contentRow
	if err := sqlx.SelectContext(ctx, exec, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}

	page := &domain.ContentPage{
		Results: make([]domain.ContentView, 0, len(rows)),
		Page:    q.Page.Number,
	}
	for _, r := range rows {
		page.Results = append(page.Results, r.toView())
	}

	switch {
	case len(rows) > 0:
		page.Total = rows[0].Total
	case q.Page.Offset() > 0:
		// Past the last page the window count is unavailable.
		total, err := s.count(ctx, exec, pred)
		if err != nil {
			return nil, err
		}
		page.Total = total
	}

	return page, nil
}

func (s *ContentStore) count(ctx context.Context, exec sqlx.QueryerContext, pred predicate) (int64, error) {
	var total int64
	query := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", contentsFrom, pred.clause)
	if err := sqlx.GetContext(ctx, exec, &total, query, pred.args...); err != nil {
		return 0, fmt.Errorf("count contents: %w", err)
	}
	return total, nil
}

// Stats aggregates the contents matching the filter in a single statement.
func (s *ContentStore) Stats(ctx context.Context, filter domain.ContentFilter, now time.Time) (*domain.ContentStats, error) {
	pred := compileFilter(filter, now)

	query := fmt.Sprintf(`
		SELECT
			agg.total_likes,
			agg.total_comments,
			agg.total_shares,
			agg.total_views,
			agg.total_contents,
			agg.total_likes + agg.total_comments + agg.total_shares AS total_engagement,
			CASE WHEN agg.total_views = 0 THEN 0::float8
				ELSE (agg.total_likes + agg.total_comments + agg.total_shares)::float8 / agg.total_views
			END AS total_engagement_rate
		FROM (
			SELECT
				COALESCE(SUM(c.like_count), 0)::bigint AS total_likes,
				COALESCE(SUM(c.comment_count), 0)::bigint AS total_comments,
				COALESCE(SUM(c.share_count), 0)::bigint AS total_shares,
				COALESCE(SUM(c.view_count), 0)::bigint AS total_views,
				COUNT(*) AS total_contents
			%s
			WHERE %s
		) agg`,
		contentsFrom, pred.clause,
	)

	var stats domain.ContentStats
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &stats, query, pred.args...); err != nil {
		return nil, fmt.Errorf("aggregate contents: %w", err)
	}
	return &stats, nil
}
