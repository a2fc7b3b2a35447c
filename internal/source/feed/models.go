package feed

import "content_metrics/internal/domain"

// Response is the feed's envelope around a batch of records.
type Response struct {
	Data []domain.ContentRecord `json:"data"`
}
