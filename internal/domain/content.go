package domain

import (
	"encoding/json"
	"time"
)

type Author struct {
	ID                 int64           `db:"id"`
	UniqueID           string          `db:"unique_id"`
	Username           string          `db:"username"`
	DisplayName        string          `db:"name"`
	ProfileURL         string          `db:"url"`
	Title              string          `db:"title"`
	ExtendedMetadata   json.RawMessage `db:"big_metadata"`
	RestrictedMetadata json.RawMessage `db:"secret_value"`
	FollowerCount      int64           `db:"followers"`
}

type Content struct {
	ID                 int64           `db:"id"`
	AuthorID           int64           `db:"author_id"`
	UniqueID           string          `db:"unique_id"`
	URL                string          `db:"url"`
	Title              string          `db:"title"`
	LikeCount          int64           `db:"like_count"`
	CommentCount       int64           `db:"comment_count"`
	ViewCount          int64           `db:"view_count"`
	ShareCount         int64           `db:"share_count"`
	ThumbnailURL       *string         `db:"thumbnail_url"`
	PublishedAt        *time.Time      `db:"published_at"`
	ExtendedMetadata   json.RawMessage `db:"big_metadata"`
	RestrictedMetadata json.RawMessage `db:"secret_value"`
}

type Tag struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
}

// UpsertResult reports the row a content record resolved to.
type UpsertResult struct {
	ContentID int64
	UniqueID  string
	Inserted  bool
}

// Engagement is the sum of the social counters of a piece of content.
func Engagement(likes, comments, shares int64) int64 {
	return likes + comments + shares
}

// EngagementRate is engagement divided by views, or 0 when there are no views.
func EngagementRate(engagement, views int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(engagement) / float64(views)
}

type ContentTagLink struct {
	ContentID int64
	TagID     int64
}
