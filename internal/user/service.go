package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/uuid/v5"

	"github.com/ordersync/ordersync/internal/events"
)

type Service struct {
	store     Store
	publisher EventPublisher
	newID     func() string
}

func NewService(store Store, publisher EventPublisher) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		newID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
}

func (s *Service) CreateUser(ctx context.Context, email string) (string, error) {
	u := User{
		ID:    s.newID(),
		Email: email,
	}

	if err := s.store.Put(ctx, u); err != nil {
		return "", fmt.Errorf("failed to save user: %w", err)
	}

	return u.ID, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("failed to get user %s: %w", id, err)
	}

	return u, nil
}

// UpdateResult describes the outcomes of an update that are not errors.
type UpdateResult struct {
	// Found is false when no user has the given id. Nothing is written or
	// published in that case.
	Found bool

	// PublishErr holds the publish failure that followed a successful write.
	// The change is stored but the orders will not see it.
	PublishErr error
}

// UpdateUser stores the new email and announces it with a UserChanged event.
// Only storage failures are returned as errors.
func (s *Service) UpdateUser(ctx context.Context, id, email string) (UpdateResult, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			slog.InfoContext(ctx, "Update of unknown user ignored", slog.String("user_id", id))
			return UpdateResult{}, nil
		}
		return UpdateResult{}, fmt.Errorf("failed to get user %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Changing user email",
		slog.String("user_id", id),
		slog.String("old_email", u.Email),
		slog.String("new_email", email),
	)

	u.Email = email
	if err := s.store.Put(ctx, u); err != nil {
		return UpdateResult{Found: true}, fmt.Errorf("failed to update user %s: %w", id, err)
	}

	result := UpdateResult{Found: true}

	event := events.UserChanged{ID: u.ID, Email: u.Email}
	if err := s.publisher.PublishUserChanged(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish user change, orders keep the old email",
			slog.String("user_id", id),
			slog.Any("error", err),
		)
		result.PublishErr = err
	}

	return result, nil
}
