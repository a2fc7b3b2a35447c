package domain

import (
	"encoding/json"
	"time"
)

// ContentFilter holds the optional listing/stats filters. A nil field imposes no constraint.
type ContentFilter struct {
	AuthorID       *int64
	AuthorUsername *string
	TagID          *int64
	Title          *string
	TimeframeDays  *int
}

// PublishedSince returns the lower bound on published_at implied by the timeframe, if any.
func (f ContentFilter) PublishedSince(now time.Time) *time.Time {
	if f.TimeframeDays == nil {
		return nil
	}
	since := now.AddDate(0, 0, -*f.TimeframeDays)
	return &since
}

// PageRequest carries the client's paging parameters; nil means default.
type PageRequest struct {
	Number       *int
	ItemsPerPage *int
}

type Page struct {
	Number       int
	ItemsPerPage int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.ItemsPerPage
}

// ContentQuery is a listing request evaluated at Now.
type ContentQuery struct {
	Filter ContentFilter
	Page   Page
	Now    time.Time
}

type AuthorView struct {
	ID               int64           `json:"id" db:"id"`
	DisplayName      string          `json:"name" db:"name"`
	Username         string          `json:"username" db:"username"`
	UniqueID         string          `json:"unique_id" db:"unique_id"`
	ProfileURL       string          `json:"url" db:"url"`
	Title            string          `json:"title" db:"title"`
	ExtendedMetadata json.RawMessage `json:"big_metadata" db:"big_metadata"`
	FollowerCount    int64           `json:"followers" db:"followers"`
}

// ContentView is a content row as exposed by the listing endpoint.
type ContentView struct {
	ID              int64      `json:"id"`
	Author          AuthorView `json:"author"`
	UniqueID        string     `json:"unique_id"`
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	LikeCount       int64      `json:"like_count"`
	CommentCount    int64      `json:"comment_count"`
	ViewCount       int64      `json:"view_count"`
	ShareCount      int64      `json:"share_count"`
	ThumbnailURL    *string    `json:"thumbnail_url"`
	PublishedAt     *time.Time `json:"timestamp"`
	TotalEngagement int64      `json:"total_engagement"`
	EngagementRate  float64    `json:"engagement_rate"`
	Tags            []string   `json:"tags"`
}

// ContentPage is one page of a listing. Total counts every matching row, not pages.
type ContentPage struct {
	Results []ContentView
	Total   int64
	Page    int
}

type ContentStats struct {
	TotalLikes          int64   `json:"total_likes" db:"total_likes"`
	TotalComments       int64   `json:"total_comments" db:"total_comments"`
	TotalShares         int64   `json:"total_shares" db:"total_shares"`
	TotalViews          int64   `json:"total_views" db:"total_views"`
	TotalContents       int64   `json:"total_contents" db:"total_contents"`
	TotalEngagement     int64   `json:"total_engagement" db:"total_engagement"`
	TotalEngagementRate float64 `json:"total_engagement_rate" db:"total_engagement_rate"`
}
