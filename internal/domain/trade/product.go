package trade

import (
	"github.com/trading/backend/internal/domain/shared"
)

// Product is the catalog entry inventory lines point at. The core only
// reads it once, at order-item snapshot time, to capture the name.
type Product struct {
	shared.BaseEntity
	Name        string `gorm:"not null"`
	Description string
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a catalog entry
func NewProduct(name, description string) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}

	return &Product{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Description: description,
	}, nil
}
