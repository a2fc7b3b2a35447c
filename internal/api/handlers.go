package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"content_metrics/internal/domain"
)

type ContentQuerier interface {
	List(ctx context.Context, filter domain.ContentFilter, req domain.PageRequest) (*domain.ContentPage, error)
	Stats(ctx context.Context, filter domain.ContentFilter) (*domain.ContentStats, error)
}

type BatchIngester interface {
	Ingest(ctx context.Context, records []domain.ContentRecord) (*domain.IngestStats, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves the content endpoints.
type Handler struct {
	contents ContentQuerier
	ingester BatchIngester
	db       Pinger
	logger   *slog.Logger
}

func NewHandler(contents ContentQuerier, ingester BatchIngester, db Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		contents: contents,
		ingester: ingester,
		db:       db,
		logger:   logger.With("component", "api"),
	}
}

// ListContents handles GET /contents/.
func (h *Handler) ListContents(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var req domain.PageRequest
	if req.Number, err = intParam(c, "page"); err != nil {
		h.writeError(c, err)
		return
	}
	if req.ItemsPerPage, err = intParam(c, "items_per_page"); err != nil {
		h.writeError(c, err)
		return
	}

	page, err := h.contents.List(c.Request.Context(), filter, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	results := page.Results
	if results == nil {
		results = []domain.ContentView{}
	}

	c.JSON(http.StatusOK, listResponse{
		Results:     results,
		TotalPages:  page.Total,
		CurrentPage: page.Page,
	})
}

// ContentStats handles GET /contents/stats/.
func (h *Handler) ContentStats(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	stats, err := h.contents.Stats(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// IngestContents handles POST /contents/ with a JSON array of records.
func (h *Handler) IngestContents(c *gin.Context) {
	var records []domain.ContentRecord
	if err := json.NewDecoder(c.Request.Body).Decode(&records); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, detailResponse{Detail: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, detailResponse{Detail: "malformed JSON body: " + err.Error()})
		return
	}

	stats, err := h.ingester.Ingest(c.Request.Context(), records)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Debug("contents ingested",
		"records", stats.Records,
		"created", stats.Created,
		"updated", stats.Updated,
	)

	c.JSON(http.StatusOK, detailResponse{Detail: "Content updated successfully"})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("database ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "unreachable"})
		return
	}

	c.JSON(http.StatusOK, healthResponse{Status: "healthy", Database: "ok"})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var perr *domain.ParameterError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, validationResponse{Detail: verr.Error(), Errors: verr.Fields})
	case errors.As(err, &perr):
		c.JSON(http.StatusBadRequest, detailResponse{Detail: perr.Error()})
	default:
		_ = c.Error(err)
		h.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, detailResponse{Detail: "internal error"})
	}
}

// parseFilter reads the listing filters. Empty values are treated as absent.
func parseFilter(c *gin.Context) (domain.ContentFilter, error) {
	var f domain.ContentFilter
	var err error

	if f.AuthorID, err = int64Param(c, "author_id"); err != nil {
		return f, err
	}
	if f.TagID, err = int64Param(c, "tag_id"); err != nil {
		return f, err
	}
	if f.TimeframeDays, err = intParam(c, "timeframe"); err != nil {
		return f, err
	}
	if v := c.Query("author_username"); v != "" {
		f.AuthorUsername = &v
	}
	if v := c.Query("title"); v != "" {
		f.Title = &v
	}
	return f, nil
}

func int64Param(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &domain.ParameterError{Param: name, Reason: "must be an integer"}
	}
	return &v, nil
}

func intParam(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &domain.ParameterError{Param: name, Reason: "must be an integer"}
	}
	return &v, nil
}
