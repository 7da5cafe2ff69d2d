package account

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository provides access to user accounts.
// SaveWithVersion commits only when the stored version equals
// Version-1; a mismatch returns shared.ErrConcurrencyConflict
// and the caller must re-read and retry.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Save(ctx context.Context, user *User) error
	SaveWithVersion(ctx context.Context, user *User) error
}

// MerchantRepository provides access to merchant accounts.
// Same CAS discipline as UserRepository.
type MerchantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Merchant, error)
	FindByUsername(ctx context.Context, username string) (*Merchant, error)
	FindAll(ctx context.Context) ([]Merchant, error)
	Save(ctx context.Context, merchant *Merchant) error
	SaveWithVersion(ctx context.Context, merchant *Merchant) error
}
