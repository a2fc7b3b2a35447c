package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"content_metrics/internal/config"
	"content_metrics/internal/domain"
)

// maxTimeframeDays keeps the timeframe lower bound inside the timestamp range
// the database accepts.
const maxTimeframeDays = 365000

// ContentService serves the listing and stats reads. Both go through the
// same filter so their counts agree.
type ContentService struct {
	contents ContentReader
	logger   *slog.Logger
	config   config.QueryConfig
	now      func() time.Time
}

func NewContentService(contents ContentReader, logger *slog.Logger, cfg config.QueryConfig) *ContentService {
	return &ContentService{
		contents: contents,
		logger:   logger.With("component", "query"),
		config:   cfg,
		now:      time.Now,
	}
}

// WithClock replaces the clock the timeframe filter is evaluated against.
func (s *ContentService) WithClock(now func() time.Time) *ContentService {
	s.now = now
	return s
}

func (s *ContentService) List(ctx context.Context, filter domain.ContentFilter, req domain.PageRequest) (*domain.ContentPage, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	page, err := s.resolvePage(req)
	if err != nil {
		return nil, err
	}

	result, err := s.contents.List(ctx, domain.ContentQuery{
		Filter: filter,
		Page:   page,
		Now:    s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}

	s.logger.Debug("listed contents",
		"page", page.Number,
		"items_per_page", page.ItemsPerPage,
		"results", len(result.Results),
		"total", result.Total,
	)

	return result, nil
}

func (s *ContentService) Stats(ctx context.Context, filter domain.ContentFilter) (*domain.ContentStats, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	stats, err := s.contents.Stats(ctx, filter, s.now())
	if err != nil {
		return nil, fmt.Errorf("content stats: %w", err)
	}
	return stats, nil
}

func (s *ContentService) resolvePage(req domain.PageRequest) (domain.Page, error) {
	page := domain.Page{Number: 1, ItemsPerPage: s.config.DefaultItemsPerPage}

	if req.Number != nil {
		if *req.Number < 1 {
			return page, &domain.ParameterError{Param: "page", Reason: "must be a positive integer"}
		}
		page.Number = *req.Number
	}

	if req.ItemsPerPage != nil {
		n := *req.ItemsPerPage
		if n <= 0 {
			return page, &domain.ParameterError{Param: "items_per_page", Reason: "must be a positive integer"}
		}
		if s.config.MaxItemsPerPage > 0 && n > s.config.MaxItemsPerPage {
			return page, &domain.ParameterError{
				Param:  "items_per_page",
				Reason: fmt.Sprintf("must not exceed %d", s.config.MaxItemsPerPage),
			}
		}
		page.ItemsPerPage = n
	}

	if page.ItemsPerPage > 0 && page.Number-1 > math.MaxInt/page.ItemsPerPage {
		return page, &domain.ParameterError{Param: "page", Reason: "is out of range"}
	}

	return page, nil
}

// normalizeFilter drops empty text filters and rejects a timeframe outside
// [0, maxTimeframeDays].
func normalizeFilter(f domain.ContentFilter) (domain.ContentFilter, error) {
	if f.AuthorUsername != nil && strings.TrimSpace(*f.AuthorUsername) == "" {
		f.AuthorUsername = nil
	}
	if f.Title != nil && *f.Title == "" {
		f.Title = nil
	}
	if f.TimeframeDays != nil && *f.TimeframeDays < 0 {
		return f, &domain.ParameterError{Param: "timeframe", Reason: "must be a non-negative number of days"}
	}
	if f.TimeframeDays != nil && *f.TimeframeDays > maxTimeframeDays {
		return f, &domain.ParameterError{
			Param:  "timeframe",
			Reason: fmt.Sprintf("must not exceed %d days", maxTimeframeDays),
		}
	}
	return f, nil
}
