package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and timestamps shared by every
// persisted domain type. IDs are generated client-side so entities are
// addressable before their first save.
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity returns a BaseEntity with a fresh ID and UTC timestamps.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BaseAggregateRoot extends BaseEntity with the optimistic-lock
// counter. Repositories commit an update only when the stored version
// still matches Version-1, so at most one writer succeeds per version.
type BaseAggregateRoot struct {
	BaseEntity
	Version int64 `gorm:"not null;default:1"`
}

// NewBaseAggregateRoot returns a BaseAggregateRoot at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// IncrementVersion advances the optimistic-lock counter. Callers do
// this immediately before a versioned save.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}
