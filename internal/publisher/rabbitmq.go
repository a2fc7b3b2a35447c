package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"content_metrics/internal/domain"
)

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger.With("component", "publisher"),
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	err := ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// ContentSnapshot is the public part of a content row carried by events.
// Restricted metadata never leaves the store.
type ContentSnapshot struct {
	ID               int64           `json:"id"`
	AuthorID         int64           `json:"author_id"`
	UniqueID         string          `json:"unique_id"`
	URL              string          `json:"url"`
	Title            string          `json:"title"`
	LikeCount        int64           `json:"like_count"`
	CommentCount     int64           `json:"comment_count"`
	ViewCount        int64           `json:"view_count"`
	ShareCount       int64           `json:"share_count"`
	ThumbnailURL     *string         `json:"thumbnail_url"`
	PublishedAt      *time.Time      `json:"timestamp"`
	ExtendedMetadata json.RawMessage `json:"big_metadata,omitempty"`
	TotalEngagement  int64           `json:"total_engagement"`
	EngagementRate   float64         `json:"engagement_rate"`
}

func snapshot(c *domain.Content) ContentSnapshot {
	engagement := domain.Engagement(c.LikeCount, c.CommentCount, c.ShareCount)
	return ContentSnapshot{
		ID:               c.ID,
		AuthorID:         c.AuthorID,
		UniqueID:         c.UniqueID,
		URL:              c.URL,
		Title:            c.Title,
		LikeCount:        c.LikeCount,
		CommentCount:     c.CommentCount,
		ViewCount:        c.ViewCount,
		ShareCount:       c.ShareCount,
		ThumbnailURL:     c.ThumbnailURL,
		PublishedAt:      c.PublishedAt,
		ExtendedMetadata: c.ExtendedMetadata,
		TotalEngagement:  engagement,
		EngagementRate:   domain.EngagementRate(engagement, c.ViewCount),
	}
}

type ContentMessage struct {
	Action    string          `json:"action"` // "create" or "update"
	Content   ContentSnapshot `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
}

func newContentMessage(content *domain.Content, isNew bool, now time.Time) ContentMessage {
	action := "update"
	if isNew {
		action = "create"
	}
	return ContentMessage{
		Action:    action,
		Content:   snapshot(content),
		Timestamp: now.UTC(),
	}
}

func (r *RabbitMQ) Publish(ctx context.Context, content *domain.Content, isNew bool) error {
	now := time.Now()
	msg := newContentMessage(content, isNew, now)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    content.UniqueID,
			Body:         body,
			Timestamp:    now,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published content event",
		"unique_id", content.UniqueID,
		"action", msg.Action,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
