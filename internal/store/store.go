// Package store defines the persistence contracts for customer records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultDisplayName is stored when an inbound message carries no profile name.
const DefaultDisplayName = "WhatsApp User"

var (
	// ErrNotFound means no customer exists for the given phone number.
	ErrNotFound = errors.New("customer not found")

	// ErrUnavailable wraps store failures unrelated to the uniqueness race.
	ErrUnavailable = errors.New("customer store unavailable")
)

// Customer is a known message sender, keyed by phone number.
// The phone number is immutable once the row exists; the display name is
// written at creation and never updated by the relay.
type Customer struct {
	ID        uuid.UUID
	PhoneNo   string
	Name      string
	CreatedAt time.Time
}

// CustomerStore persists customers with a uniqueness invariant on phone_no.
type CustomerStore interface {
	// FindByPhone returns the customer for a phone number, or ErrNotFound.
	FindByPhone(ctx context.Context, phone string) (*Customer, error)

	// Insert adds the customer unless a row with the same phone number
	// already exists. Returns false (and no error) when the conditional
	// insert lost to a concurrent writer.
	Insert(ctx context.Context, c *Customer) (bool, error)
}
