package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"content_metrics/internal/domain"
)

const SourceName = "Content feed"

// StatusError is returned when the feed answers with a non-200 status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// retryable reports whether another attempt can succeed. Client errors
// other than 408 and 429 will not change on retry.
func retryable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return true
	}
	switch {
	case se.Code == http.StatusRequestTimeout, se.Code == http.StatusTooManyRequests:
		return true
	case se.Code >= 400 && se.Code < 500:
		return false
	}
	return true
}

// Config holds feed source configuration.
type Config struct {
	SourceID       string
	URL            string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source pulls content records from an HTTP JSON feed.
type Source struct {
	httpClient     *http.Client
	id             string
	url            string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		id:             cfg.SourceID,
		url:            cfg.URL,
		maxAttempts:    maxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", cfg.SourceID),
	}
}

func (s *Source) ID() string {
	return s.id
}

func (s *Source) Name() string {
	return SourceName
}

// FetchRecords downloads the current feed. Transport failures and 5xx
// answers are retried with exponential backoff.
func (s *Source) FetchRecords(ctx context.Context) ([]domain.ContentRecord, error) {
	var (
		resp    *Response
		err     error
		attempt int
	)

	for attempt = 1; attempt <= s.maxAttempts; attempt++ {
		resp, err = s.doRequest(ctx)
		if err == nil {
			s.logger.Debug("fetched feed", "records", len(resp.Data), "attempt", attempt)
			return resp.Data, nil
		}

		if !retryable(err) {
			return nil, err
		}
		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", attempt, err)
}

func (s *Source) doRequest(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ContentMetrics/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var feedResp Response
	if err := json.NewDecoder(resp.Body).Decode(&feedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &feedResp, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if s.maxBackoff > 0 && backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}
