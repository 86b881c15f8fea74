package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nextlevelbuilder/warelay/internal/store"
)

// CustomerStore implements store.CustomerStore backed by Postgres.
type CustomerStore struct {
	db *sql.DB
}

func NewCustomerStore(db *sql.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

func (s *CustomerStore) FindByPhone(ctx context.Context, phone string) (*store.Customer, error) {
	var c store.Customer
	err := s.db.QueryRowContext(ctx,
		`SELECT id, phone_no, customer_name, created_at FROM customers WHERE phone_no = $1`,
		phone,
	).Scan(&c.ID, &c.PhoneNo, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return &c, nil
}

// Insert is an atomic conditional insert: ON CONFLICT DO NOTHING makes the
// phone_no uniqueness race lose silently instead of erroring, so callers can
// re-read the winning row.
func (s *CustomerStore) Insert(ctx context.Context, c *store.Customer) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (id, phone_no, customer_name, created_at)
		 VALUES ($1, $2, $3, $4) ON CONFLICT (phone_no) DO NOTHING`,
		c.ID, c.PhoneNo, c.Name, c.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert customer: %w", err)
	}
	return n > 0, nil
}
