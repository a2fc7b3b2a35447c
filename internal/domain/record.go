package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ContentRecord is one item of an ingestion batch, in the feed's wire format.
type ContentRecord struct {
	UniqueID           string          `json:"unq_external_id" validate:"required,nonul,max=1024"`
	Stats              *StatsRecord    `json:"stats" validate:"required"`
	Author             *AuthorRecord   `json:"author" validate:"required"`
	ExtendedMetadata   json.RawMessage `json:"big_metadata,omitempty" validate:"nonul"`
	RestrictedMetadata json.RawMessage `json:"secret_value,omitempty" validate:"nonul"`
	URL                string          `json:"url,omitempty" validate:"nonul,max=1024"`
	ThumbnailURL       string          `json:"thumbnail_view_url" validate:"required,nonul,max=1024"`
	Title              string          `json:"title" validate:"required,nonul"`
	Hashtags           []string        `json:"hashtags" validate:"dive,nonul,max=100"`
	Timestamp          *time.Time      `json:"timestamp" validate:"required"`
}

type StatsRecord struct {
	Likes    *int64 `json:"likes" validate:"required,min=0"`
	Comments *int64 `json:"comments" validate:"required,min=0"`
	Views    *int64 `json:"views" validate:"required,min=0"`
	Shares   *int64 `json:"shares" validate:"required,min=0"`
}

type AuthorRecord struct {
	Username           string          `json:"unique_name" validate:"required,nonul,max=100"`
	FullName           string          `json:"full_name" validate:"required,nonul,max=100"`
	UniqueID           string          `json:"unique_external_id" validate:"required,nonul,max=1024"`
	URL                string          `json:"url" validate:"nonul,max=1024"`
	Title              string          `json:"title" validate:"nonul,max=1024"`
	ExtendedMetadata   json.RawMessage `json:"big_metadata,omitempty" validate:"nonul"`
	RestrictedMetadata json.RawMessage `json:"secret_value,omitempty" validate:"nonul"`
}

// ToAuthor maps the author block to a new Author row. Only valid records may be mapped.
func (r ContentRecord) ToAuthor() Author {
	return Author{
		UniqueID:           r.Author.UniqueID,
		Username:           r.Author.Username,
		DisplayName:        r.Author.FullName,
		ProfileURL:         r.Author.URL,
		Title:              r.Author.Title,
		ExtendedMetadata:   nullJSON(r.Author.ExtendedMetadata),
		RestrictedMetadata: nullJSON(r.Author.RestrictedMetadata),
	}
}

// ToContent maps the record to a Content row owned by authorID.
func (r ContentRecord) ToContent(authorID int64) Content {
	thumbnail := r.ThumbnailURL
	return Content{
		AuthorID:           authorID,
		UniqueID:           r.UniqueID,
		URL:                r.URL,
		Title:              r.Title,
		LikeCount:          *r.Stats.Likes,
		CommentCount:       *r.Stats.Comments,
		ViewCount:          *r.Stats.Views,
		ShareCount:         *r.Stats.Shares,
		ThumbnailURL:       &thumbnail,
		PublishedAt:        r.Timestamp,
		ExtendedMetadata:   nullJSON(r.ExtendedMetadata),
		RestrictedMetadata: nullJSON(r.RestrictedMetadata),
	}
}

// TagNames returns the trimmed, non-empty hashtags of the record without duplicates.
func (r ContentRecord) TagNames() []string {
	seen := make(map[string]struct{}, len(r.Hashtags))
	names := make([]string, 0, len(r.Hashtags))
	for _, h := range r.Hashtags {
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// nullJSON maps an absent or JSON null blob to SQL NULL.
func nullJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
