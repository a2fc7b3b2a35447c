package api

import "content_metrics/internal/domain"

type listResponse struct {
	Results []domain.ContentView `json:"results"`
	// TotalPages carries the matching row count, not a page count.
	TotalPages  int64 `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type validationResponse struct {
	Detail string              `json:"detail"`
	Errors []domain.FieldError `json:"errors"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
