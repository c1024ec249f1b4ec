package order

import (
	"context"

	"github.com/shopspring/decimal"
)

// PurchaseOrder embeds copies of the user and product it was placed for.
// The user copy is refreshed only by UserChanged events.
type PurchaseOrder struct {
	ID      string          `json:"id"`
	User    UserSnapshot    `json:"user"`
	Product Product         `json:"product"`
	Price   decimal.Decimal `json:"price"`
}

type UserSnapshot struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store persists purchase orders keyed by id, with a lookup by the embedded
// user id. Failures are *db.StorageError.
type Store interface {
	List(ctx context.Context) ([]PurchaseOrder, error)
	Create(ctx context.Context, order PurchaseOrder) error
	FindByUserID(ctx context.Context, userID string) ([]PurchaseOrder, error)
	// SaveAll writes every order or none of them.
	SaveAll(ctx context.Context, orders []PurchaseOrder) error
}
