package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trading/backend/internal/domain/shared"
)

// Repository provides access to settlement records. One record exists
// per (merchant, date); Save must fail with shared.ErrAlreadyExists if
// a record for the pair already landed.
type Repository interface {
	FindByMerchantAndDate(ctx context.Context, merchantID uuid.UUID, date time.Time) (*Settlement, error)
	FindByMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) ([]Settlement, int64, error)
	ExistsByMerchantAndDate(ctx context.Context, merchantID uuid.UUID, date time.Time) (bool, error)
	Save(ctx context.Context, settlement *Settlement) error
}
