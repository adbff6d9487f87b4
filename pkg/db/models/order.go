package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
)

// Order is a customer order. Monetary fields are computed once at creation
// and never recomputed by later status transitions.
type Order struct {
	ID                  uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber         string               `gorm:"column:order_number;not null;uniqueIndex"`
	UserID              uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID           uuid.UUID            `gorm:"column:address_id;type:uuid;not null"`
	Subtotal            int64                `gorm:"column:subtotal;not null"`
	DiscountAmount      int64                `gorm:"column:discount_amount;not null;default:0"`
	DeliveryFee         int64                `gorm:"column:delivery_fee;not null"`
	Total               int64                `gorm:"column:total;not null"`
	PaymentMethod       enums.PaymentMethod  `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus       enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'PENDING'"`
	Status              enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'PENDING'"`
	DiscountCodeID      *uuid.UUID           `gorm:"column:discount_code_id;type:uuid"`
	Notes               *string              `gorm:"column:notes"`
	AssignedDeliveryID  *uuid.UUID           `gorm:"column:assigned_delivery_id;type:uuid"`
	ConfirmedAt         *time.Time           `gorm:"column:confirmed_at"`
	AssignedAt          *time.Time           `gorm:"column:assigned_at"`
	DeliveredAt         *time.Time           `gorm:"column:delivered_at"`
	CancelledAt         *time.Time           `gorm:"column:cancelled_at"`
	PaidAt              *time.Time           `gorm:"column:paid_at"`
	Items               []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History             []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is a frozen snapshot of a product at order time. Later product
// edits never alter historical orders.
type OrderItem struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName string    `gorm:"column:product_name;not null"`
	SKU         string    `gorm:"column:sku;not null"`
	Image       *string   `gorm:"column:image"`
	Quantity    int       `gorm:"column:quantity;not null"`
	UnitPrice   int64     `gorm:"column:unit_price;not null"`
	Subtotal    int64     `gorm:"column:subtotal;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// OrderStatusHistory is the append-only audit trail. Exactly one row is
// written per status-changing operation, including the initial PENDING row.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Notes     *string           `gorm:"column:notes"`
	ChangedBy uuid.UUID         `gorm:"column:changed_by;type:uuid;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides GORM pluralization for the audit table.
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
