package order

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ordersync/ordersync/internal/db"
)

const Schema = `
	CREATE TABLE IF NOT EXISTS purchase_orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_email TEXT NOT NULL,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		price NUMERIC NOT NULL
	);

	CREATE INDEX IF NOT EXISTS purchase_orders_user_id_idx ON purchase_orders (user_id);
`

const upsertOrderSQL = `
	INSERT INTO purchase_orders (id, user_id, user_email, product_id, product_name, price)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		user_email = EXCLUDED.user_email,
		product_id = EXCLUDED.product_id,
		product_name = EXCLUDED.product_name,
		price = EXCLUDED.price
`

type orderRow struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	UserEmail   string          `db:"user_email"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	Price       decimal.Decimal `db:"price"`
}

func (r orderRow) toOrder() PurchaseOrder {
	return PurchaseOrder{
		ID:      r.ID,
		User:    UserSnapshot{ID: r.UserID, Email: r.UserEmail},
		Product: Product{ID: r.ProductID, Name: r.ProductName},
		Price:   r.Price,
	}
}

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]PurchaseOrder, error) {
	var rows []orderRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, user_email, product_id, product_name, price
		FROM purchase_orders
		ORDER BY id
	`)
	if err != nil {
		return nil, db.NewStorageError("list orders", err)
	}

	return toOrders(rows), nil
}

func (s *PostgresStore) Create(ctx context.Context, o PurchaseOrder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchase_orders (id, user_id, user_email, product_id, product_name, price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, orderArgs(o)...)
	if err != nil {
		return db.NewStorageError("create order", err)
	}

	return nil
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID string) ([]PurchaseOrder, error) {
	var rows []orderRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, user_email, product_id, product_name, price
		FROM purchase_orders
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, db.NewStorageError("find orders by user", err)
	}

	return toOrders(rows), nil
}

func (s *PostgresStore) SaveAll(ctx context.Context, orders []PurchaseOrder) error {
	if len(orders) == 0 {
		return nil
	}

	err := db.UpdateInTx(ctx, s.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		for _, o := range orders {
			if _, err := tx.ExecContext(ctx, upsertOrderSQL, orderArgs(o)...); err != nil {
				return fmt.Errorf("failed to save order %s: %w", o.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return db.NewStorageError("save orders", err)
	}

	return nil
}

func orderArgs(o PurchaseOrder) []any {
	return []any{o.ID, o.User.ID, o.User.Email, o.Product.ID, o.Product.Name, o.Price}
}

func toOrders(rows []orderRow) []PurchaseOrder {
	orders := make([]PurchaseOrder, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.toOrder())
	}
	return orders
}
