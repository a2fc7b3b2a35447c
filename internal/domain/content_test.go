package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_metrics/testdata/utils"
)

func TestEngagement(t *testing.T) {
	engagement := Engagement(10, 5, 2)
	assert.Equal(t, int64(17), engagement)
	assert.Equal(t, 0.17, EngagementRate(engagement, 100))
}

func TestEngagementRate_ZeroViews(t *testing.T) {
	assert.Equal(t, float64(0), EngagementRate(17, 0))
	assert.Equal(t, float64(0), EngagementRate(0, 0))
}

func TestContentRecord_TagNames(t *testing.T) {
	r := ContentRecord{Hashtags: []string{"go", " go ", "", "  ", "db", "go"}}
	assert.Equal(t, []string{"go", "db"}, r.TagNames())

	assert.Empty(t, ContentRecord{}.TagNames())
}

func TestContentRecord_ToContent(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := ContentRecord{
		UniqueID: "c-1",
		Stats: &StatsRecord{
			Likes:    utils.Ptr(int64(10)),
			Comments: utils.Ptr(int64(5)),
			Views:    utils.Ptr(int64(100)),
			Shares:   utils.Ptr(int64(2)),
		},
		Author:           &AuthorRecord{UniqueID: "a-1", Username: "alice", FullName: "Alice"},
		ExtendedMetadata: json.RawMessage(`null`),
		ThumbnailURL:     "https://img.example.com/1.jpg",
		Title:            "hello",
		Timestamp:        &ts,
	}

	c := r.ToContent(7)
	assert.Equal(t, int64(7), c.AuthorID)
	assert.Equal(t, "c-1", c.UniqueID)
	assert.Equal(t, int64(10), c.LikeCount)
	assert.Equal(t, int64(5), c.CommentCount)
	assert.Equal(t, int64(100), c.ViewCount)
	assert.Equal(t, int64(2), c.ShareCount)
	require.NotNil(t, c.ThumbnailURL)
	assert.Equal(t, "https://img.example.com/1.jpg", *c.ThumbnailURL)
	assert.Equal(t, &ts, c.PublishedAt)
	assert.Nil(t, c.ExtendedMetadata)

	a := r.ToAuthor()
	assert.Equal(t, "a-1", a.UniqueID)
	assert.Equal(t, "alice", a.Username)
	assert.Equal(t, "Alice", a.DisplayName)
}

func TestContentFilter_PublishedSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, ContentFilter{}.PublishedSince(now))

	since := ContentFilter{TimeframeDays: utils.Ptr(7)}.PublishedSince(now)
	require.NotNil(t, since)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), *since)
}

func TestPage_Offset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, ItemsPerPage: 10}.Offset())
	assert.Equal(t, 20, Page{Number: 3, ItemsPerPage: 10}.Offset())
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Index: 0, Field: "stats.likes", Reason: "required"},
		{Index: -1, Field: "batch", Reason: "too large"},
	}}
	assert.Equal(t, "invalid batch: [0].stats.likes: required; batch: too large", err.Error())
}
