package orders

import (
	"github.com/google/uuid"

	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
)

// CreateOrderInput is the checkout payload. Prices are never taken from the
// client; the cart and catalog are the source of truth.
type CreateOrderInput struct {
	AddressID     uuid.UUID           `json:"addressId" validate:"required"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod" validate:"required"`
	DiscountCode  *string             `json:"discountCode,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
}

// UpdateStatusInput advances the order state machine from the back office.
type UpdateStatusInput struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

// AssignDeliveryInput hands the order to a delivery person.
type AssignDeliveryInput struct {
	DeliveryUserID uuid.UUID `json:"deliveryUserId" validate:"required"`
}

// CancelInput carries the optional cancellation reason.
type CancelInput struct {
	Reason *string `json:"reason,omitempty"`
}

// Actor identifies who is performing an order operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}
