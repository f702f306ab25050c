package service

import (
	"context"

	"github.com/jubmeng/rainbow/internal/domain"
)

// ReviewEvents publishes review events. *event.Producer implements it.
type ReviewEvents interface {
	PublishReviewCreated(ctx context.Context, data domain.ReviewCreated) error
}

// UserEvents publishes account events. *event.Producer implements it.
type UserEvents interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishPasswordReset(ctx context.Context, data domain.PasswordResetRequested) error
}
