package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
)

// Notifier receives order lifecycle events after they commit. Implementations
// must not block or fail the calling operation.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderStatusChanged(ctx context.Context, order *models.Order, previous enums.OrderStatus)
	DeliveryAssigned(ctx context.Context, order *models.Order, deliveryUserID uuid.UUID)
}

// NopNotifier drops all events. Used when notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) OrderCreated(context.Context, *models.Order) {}

func (NopNotifier) OrderStatusChanged(context.Context, *models.Order, enums.OrderStatus) {}

func (NopNotifier) DeliveryAssigned(context.Context, *models.Order, uuid.UUID) {}
