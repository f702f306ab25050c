package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jubmeng/rainbow/internal/domain"
	pkgkafka "github.com/jubmeng/rainbow/pkg/kafka"
	"github.com/jubmeng/rainbow/pkg/logger"
)

// Kafka topics written by this service.
var (
	TopicReviewCreated     = pkgkafka.Topic("review", "created")
	TopicUserRegistered    = pkgkafka.Topic("user", "registered")
	TopicUserPasswordReset = pkgkafka.Topic("user", "password_reset")
)

// Aggregate types.
const (
	AggregateTypeUser = "user"
)

// SourceService identifies events originating from this service.
const SourceService = "rainbow"

// Producer publishes domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishReviewCreated publishes a review.created event keyed by the
// listing, so a listing's rating changes stay ordered.
func (p *Producer) PublishReviewCreated(ctx context.Context, data domain.ReviewCreated) error {
	return p.publish(ctx, TopicReviewCreated, data.Product.ID, string(data.Product.Kind), data)
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, domain.UserRegistered{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// PublishPasswordReset publishes a user.password_reset event for the mailer.
func (p *Producer) PublishPasswordReset(ctx context.Context, data domain.PasswordResetRequested) error {
	return p.publish(ctx, TopicUserPasswordReset, data.UserID, AggregateTypeUser, data)
}
