package user

import (
	"context"
	"errors"

	"github.com/ordersync/ordersync/internal/events"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID    string `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
}

// Store persists users keyed by id. Get returns ErrUserNotFound for an
// unknown id; any other failure is a *db.StorageError.
type Store interface {
	Get(ctx context.Context, id string) (User, error)
	Put(ctx context.Context, user User) error
}

type EventPublisher interface {
	PublishUserChanged(ctx context.Context, event events.UserChanged) error
}
