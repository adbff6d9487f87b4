package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	pkgerrors "github.com/amaraokeke/pearlstrands-backend/pkg/errors"
	"github.com/amaraokeke/pearlstrands-backend/pkg/logger"
	"github.com/amaraokeke/pearlstrands-backend/pkg/pagination"
)

// deliverTimeout bounds the write so a slow database cannot stall the
// order path the event was emitted from.
const deliverTimeout = 5 * time.Second

// Service fans order events out to in-app notifications and serves the
// user-facing inbox. The event methods satisfy the order engine's Notifier
// port: they never return errors, failures are logged and dropped.
type Service interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderStatusChanged(ctx context.Context, order *models.Order, previous enums.OrderStatus)
	DeliveryAssigned(ctx context.Context, order *models.Order, deliveryUserID uuid.UUID)
	LowStock(ctx context.Context, product *models.Product, adminIDs []uuid.UUID)

	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) (pagination.Page[models.Notification], error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

// NewService builds the notification service.
func NewService(repo Repository, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) OrderCreated(ctx context.Context, order *models.Order) {
	s.deliver(ctx, &models.Notification{
		UserID:  order.UserID,
		Type:    enums.NotificationTypeOrderCreated,
		Title:   "Order placed",
		Message: fmt.Sprintf("Your order %s has been received and is awaiting confirmation.", order.OrderNumber),
		OrderID: &order.ID,
	})
}

func (s *service) OrderStatusChanged(ctx context.Context, order *models.Order, previous enums.OrderStatus) {
	s.deliver(ctx, &models.Notification{
		UserID:  order.UserID,
		Type:    enums.NotificationTypeOrderStatus,
		Title:   "Order update",
		Message: fmt.Sprintf("Your order %s is now %s.", order.OrderNumber, order.Status),
		OrderID: &order.ID,
	})
}

// DeliveryAssigned notifies both sides: the courier gets the assignment, the
// customer learns the order moved.
func (s *service) DeliveryAssigned(ctx context.Context, order *models.Order, deliveryUserID uuid.UUID) {
	s.deliver(ctx, &models.Notification{
		UserID:  deliveryUserID,
		Type:    enums.NotificationTypeDeliveryAssigned,
		Title:   "New delivery",
		Message: fmt.Sprintf("Order %s has been assigned to you.", order.OrderNumber),
		OrderID: &order.ID,
	})
	s.deliver(ctx, &models.Notification{
		UserID:  order.UserID,
		Type:    enums.NotificationTypeOrderStatus,
		Title:   "Order update",
		Message: fmt.Sprintf("A delivery agent has been assigned to your order %s.", order.OrderNumber),
		OrderID: &order.ID,
	})
}

func (s *service) LowStock(ctx context.Context, product *models.Product, adminIDs []uuid.UUID) {
	for _, adminID := range adminIDs {
		s.deliver(ctx, &models.Notification{
			UserID:  adminID,
			Type:    enums.NotificationTypeLowStock,
			Title:   "Low stock",
			Message: fmt.Sprintf("%s (%s) is down to %d units.", product.Name, product.SKU, product.StockQuantity),
		})
	}
}

// deliver writes the row outside the caller's cancellation scope. Events fire
// after the order transaction commits, so an aborted request must not drop
// the notification.
func (s *service) deliver(ctx context.Context, notification *models.Notification) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
	defer cancel()
	if _, err := s.repo.Create(detached, notification); err != nil {
		s.log.Error(ctx, "notification delivery failed", err)
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) (pagination.Page[models.Notification], error) {
	params.Limit = pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Notification]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, userID, unreadOnly, params.Limit, cursor)
	if err != nil {
		return pagination.Page[models.Notification]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notifications")
	}
	return pagination.BuildPage(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	}), nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, userID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark notification read")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark notifications read")
	}
	return updated, nil
}
