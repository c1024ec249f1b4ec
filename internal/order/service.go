package order

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/ordersync/ordersync/internal/events"
)

type Service struct {
	store Store
	newID func() string
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		newID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
}

func (s *Service) ListOrders(ctx context.Context) ([]PurchaseOrder, error) {
	orders, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// CreateOrder stores the order under a fresh id and returns that id. The
// embedded user and product are taken as given.
func (s *Service) CreateOrder(ctx context.Context, o PurchaseOrder) (string, error) {
	o.ID = s.newID()

	if err := s.store.Create(ctx, o); err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}

	return o.ID, nil
}

// ApplyUserChange overwrites the user snapshot of every order placed by the
// changed user and returns how many orders were rewritten. The overwrite is
// unconditional: an older event processed after a newer one wins.
func (s *Service) ApplyUserChange(ctx context.Context, event events.UserChanged) (int, error) {
	orders, err := s.store.FindByUserID(ctx, event.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to find orders of user %s: %w", event.ID, err)
	}

	if len(orders) == 0 {
		return 0, nil
	}

	snapshot := UserSnapshot{ID: event.ID, Email: event.Email}
	for i := range orders {
		orders[i].User = snapshot
	}

	if err := s.store.SaveAll(ctx, orders); err != nil {
		return 0, fmt.Errorf("failed to save orders of user %s: %w", event.ID, err)
	}

	return len(orders), nil
}
