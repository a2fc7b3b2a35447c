package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"content_metrics/internal/config"
	"content_metrics/internal/domain"
)

type IngestService struct {
	authors   AuthorStore
	contents  ContentStore
	tags      TagStore
	txManager TransactionManager
	publisher Publisher
	validate  *validator.Validate
	logger    *slog.Logger
	config    config.IngestConfig
}

func NewIngestService(
	authors AuthorStore,
	contents ContentStore,
	tags TagStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.IngestConfig,
) *IngestService {
	return &IngestService{
		authors:   authors,
		contents:  contents,
		tags:      tags,
		txManager: txManager,
		publisher: publisher,
		validate:  newValidator(),
		logger:    logger.With("component", "ingest"),
		config:    cfg,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Cannot fail: the tag name is valid and the function is non-nil.
	_ = v.RegisterValidation("nonul", noNUL)
	return v
}

// noNUL rejects text the database cannot store: strings holding U+0000 and
// JSON blobs carrying a \u0000 escape.
func noNUL(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.String:
		return !strings.ContainsRune(field.String(), 0)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.Uint8 {
			return true
		}
		return !hasNULEscape(field.Bytes())
	}
	return true
}

// hasNULEscape reports whether raw JSON contains a \u0000 escape that is not
// itself an escaped backslash followed by "u0000".
func hasNULEscape(raw []byte) bool {
	if bytes.IndexByte(raw, 0) >= 0 {
		return true
	}
	for i := 0; i+6 <= len(raw); i++ {
		if raw[i] != '\\' || !bytes.Equal(raw[i+1:i+6], []byte("u0000")) {
			continue
		}
		backslashes := 1
		for j := i - 1; j >= 0 && raw[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 1 {
			return true
		}
	}
	return false
}

// batchWrite is what one transaction attempt wrote.
type batchWrite struct {
	authors  int
	tags     int
	upserted []domain.UpsertResult
	contents []domain.Content
}

// Ingest validates the batch and applies it in one transaction: authors are
// created if missing, contents are upserted in batch order, and hashtags are
// created and linked. Nothing is written when any record is invalid.
func (s *IngestService) Ingest(ctx context.Context, records []domain.ContentRecord) (*domain.IngestStats, error) {
	startTime := time.Now()

	if err := s.Validate(records); err != nil {
		return nil, err
	}

	stats := &domain.IngestStats{Records: len(records)}
	if len(records) == 0 {
		return stats, nil
	}

	var written *batchWrite
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		stats.Attempts++
		w, err := s.writeBatch(txCtx, records)
		if err != nil {
			return err
		}
		written = w
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest batch: %w", err)
	}

	stats.Authors = written.authors
	stats.Tags = written.tags
	for _, r := range written.upserted {
		if r.Inserted {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	if s.publisher != nil {
		for i := range written.contents {
			content := &written.contents[i]
			if err := s.publisher.Publish(ctx, content, written.upserted[i].Inserted); err != nil {
				s.logger.Warn("publish content event failed",
					"unique_id", content.UniqueID,
					"error", err,
				)
				continue
			}
			stats.Published++
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("batch ingested",
		"records", stats.Records,
		"created", stats.Created,
		"updated", stats.Updated,
		"authors", stats.Authors,
		"tags", stats.Tags,
		"attempts", stats.Attempts,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *IngestService) writeBatch(ctx context.Context, records []domain.ContentRecord) (*batchWrite, error) {
	// First occurrence of an author wins, matching the store's first-write-wins policy.
	var authors []domain.Author
	seenAuthors := make(map[string]struct{})
	var tagNames []string
	seenTags := make(map[string]struct{})

	for _, r := range records {
		if _, ok := seenAuthors[r.Author.UniqueID]; !ok {
			seenAuthors[r.Author.UniqueID] = struct{}{}
			authors = append(authors, r.ToAuthor())
		}
		for _, name := range r.TagNames() {
			if _, ok := seenTags[name]; !ok {
				seenTags[name] = struct{}{}
				tagNames = append(tagNames, name)
			}
		}
	}

	authorIDs, err := s.authors.EnsureBatch(ctx, authors)
	if err != nil {
		return nil, fmt.Errorf("ensure authors: %w", err)
	}

	tagIDs, err := s.tags.EnsureBatch(ctx, tagNames)
	if err != nil {
		return nil, fmt.Errorf("ensure tags: %w", err)
	}

	w := &batchWrite{
		authors:  len(authors),
		tags:     len(tagNames),
		upserted: make([]domain.UpsertResult, 0, len(records)),
		contents: make([]domain.Content, 0, len(records)),
	}

	var links []domain.ContentTagLink
	seenLinks := make(map[domain.ContentTagLink]struct{})

	for _, r := range records {
		authorID, ok := authorIDs[r.Author.UniqueID]
		if !ok {
			return nil, fmt.Errorf("author %q not resolved", r.Author.UniqueID)
		}

		content := r.ToContent(authorID)
		contentID, inserted, err := s.contents.Upsert(ctx, &content)
		if err != nil {
			return nil, fmt.Errorf("upsert content %q: %w", r.UniqueID, err)
		}
		content.ID = contentID

		w.contents = append(w.contents, content)
		w.upserted = append(w.upserted, domain.UpsertResult{
			ContentID: contentID,
			UniqueID:  r.UniqueID,
			Inserted:  inserted,
		})

		for _, name := range r.TagNames() {
			tagID, ok := tagIDs[name]
			if !ok {
				return nil, fmt.Errorf("tag %q not resolved", name)
			}
			link := domain.ContentTagLink{ContentID: contentID, TagID: tagID}
			if _, ok := seenLinks[link]; ok {
				continue
			}
			seenLinks[link] = struct{}{}
			links = append(links, link)
		}
	}

	if err := s.tags.Link(ctx, links); err != nil {
		return nil, fmt.Errorf("link tags: %w", err)
	}

	return w, nil
}

// Validate checks the whole batch and reports every invalid field.
func (s *IngestService) Validate(records []domain.ContentRecord) error {
	if s.config.MaxBatchSize > 0 && len(records) > s.config.MaxBatchSize {
		return &domain.ValidationError{Fields: []domain.FieldError{{
			Index:  -1,
			Field:  "batch",
			Reason: fmt.Sprintf("holds %d records, at most %d allowed", len(records), s.config.MaxBatchSize),
		}}}
	}

	var fields []domain.FieldError
	for i, r := range records {
		fields = append(fields, s.ValidateRecord(i, r)...)
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func (s *IngestService) ValidateRecord(index int, record domain.ContentRecord) []domain.FieldError {
	err := s.validate.Struct(record)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domain.FieldError{{Index: index, Field: "record", Reason: err.Error()}}
	}

	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{
			Index:  index,
			Field:  fieldPath(fe.Namespace()),
			Reason: reason(fe),
		})
	}
	return fields
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "nonul":
		return "must not contain NUL characters"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
