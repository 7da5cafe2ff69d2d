package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// COMPLETED, CANCELLED and REFUNDED are terminal; refunds are only
// reachable from PAID or SHIPPED, never from COMPLETED.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusShipped || target == OrderStatusRefunded
	case OrderStatusShipped:
		return target == OrderStatusCompleted || target == OrderStatusRefunded
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return false
	}
	return false
}

// IsTerminal returns true for states with no outgoing transitions
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// OrderItem is a line item within an order. Product name and unit price
// are snapshotted at order creation and never re-read from the catalog,
// so settlement and customer-facing totals stay stable even if the
// catalog price changes later.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU         string          `gorm:"not null"`
	ProductName string          `gorm:"not null"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates a line item, computing subtotal = quantity * unit price
func NewOrderItem(orderID uuid.UUID, sku, productName string, quantity int64, unitPrice valueobject.Money) (*OrderItem, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		SKU:         sku,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		Subtotal:    unitPrice.MultiplyByInt(quantity).Amount(),
		CreatedAt:   time.Now(),
	}, nil
}

// Order is the aggregate root for the purchase lifecycle. Inventory and
// balance mutations only happen as side effects of an order transition,
// never independently.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber string          `gorm:"uniqueIndex;not null"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MerchantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;index"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;references:ID"`
	FromCart    bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an order in PENDING status with no items yet.
// Stock is not reserved at creation time; abandoned orders must never
// hold inventory hostage.
func NewOrder(userID, merchantID uuid.UUID, fromCart bool) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if merchantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MERCHANT", "Merchant ID cannot be empty")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       GenerateOrderNumber(),
		UserID:            userID,
		MerchantID:        merchantID,
		TotalAmount:       decimal.Zero,
		Status:            OrderStatusPending,
		Items:             make([]OrderItem, 0),
		FromCart:          fromCart,
	}, nil
}

// AddItem appends a line item and recalculates the total.
// Only allowed while the order is still PENDING.
func (o *Order) AddItem(sku, productName string, quantity int64, unitPrice valueobject.Money) (*OrderItem, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.NewDomainError("INVALID_OPERATION", "Cannot add items to a non-pending order")
	}

	item, err := NewOrderItem(o.ID, sku, productName, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return item, nil
}

// MarkPaid transitions PENDING -> PAID
func (o *Order) MarkPaid() error {
	return o.transition(OrderStatusPaid)
}

// MarkShipped transitions PAID -> SHIPPED
func (o *Order) MarkShipped() error {
	return o.transition(OrderStatusShipped)
}

// MarkCompleted transitions SHIPPED -> COMPLETED
func (o *Order) MarkCompleted() error {
	return o.transition(OrderStatusCompleted)
}

// MarkCancelled transitions to CANCELLED. Reachable from PENDING on an
// explicit cancel, and from PENDING during a failed payment (the order
// is consumed rather than left forever unpayable).
func (o *Order) MarkCancelled() error {
	return o.transition(OrderStatusCancelled)
}

// MarkRefunded transitions PAID or SHIPPED -> REFUNDED
func (o *Order) MarkRefunded() error {
	return o.transition(OrderStatusRefunded)
}

func (o *Order) transition(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_OPERATION",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}

	o.Status = target
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	o.TotalAmount = total
}

// GetTotalAmountMoney returns the total as a Money value object
func (o *Order) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.TotalAmount)
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// GenerateOrderNumber produces a human-auditable unique order number,
// e.g. ORD20240315104233AB12CD34.
func GenerateOrderNumber() string {
	timestamp := time.Now().Format("20060102150405")
	random := strings.ToUpper(uuid.NewString()[:8])
	return "ORD" + timestamp + random
}
