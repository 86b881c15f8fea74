// Package directory resolves inbound sender phone numbers to customer
// records, creating them on first contact.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/warelay/internal/store"
)

// Service implements read-or-create over a CustomerStore.
type Service struct {
	store store.CustomerStore
}

func New(st store.CustomerStore) *Service {
	return &Service{store: st}
}

// ResolveOrCreate returns the customer for a phone number, inserting one on
// first contact. Existing customers are returned unchanged; displayName is
// only used when creating. Concurrent first-contact calls for the same number
// all resolve to the single row that won the conditional insert.
func (s *Service) ResolveOrCreate(ctx context.Context, phone, displayName string) (*store.Customer, error) {
	c, err := s.store.FindByPhone(ctx, phone)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = store.DefaultDisplayName
	}

	created := &store.Customer{
		ID:        uuid.Must(uuid.NewV7()),
		PhoneNo:   phone,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	inserted, err := s.store.Insert(ctx, created)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if inserted {
		slog.Info("customer created", "phone", phone, "name", name)
		return created, nil
	}

	// A concurrent request created the row between the lookup and the
	// insert. Re-read the winning row and return it.
	c, err = s.store.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return c, nil
}
