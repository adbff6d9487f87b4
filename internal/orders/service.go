package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amaraokeke/pearlstrands-backend/internal/cart"
	"github.com/amaraokeke/pearlstrands-backend/internal/discounts"
	"github.com/amaraokeke/pearlstrands-backend/internal/products"
	"github.com/amaraokeke/pearlstrands-backend/pkg/config"
	"github.com/amaraokeke/pearlstrands-backend/pkg/db"
	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	pkgerrors "github.com/amaraokeke/pearlstrands-backend/pkg/errors"
	"github.com/amaraokeke/pearlstrands-backend/pkg/pagination"
)

// Service executes the order lifecycle: transactional creation, state
// machine transitions, delivery assignment and compensating cancellation.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, actor Actor, status *enums.OrderStatus, params pagination.Params) (pagination.Page[models.Order], error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, input UpdateStatusInput) (*models.Order, error)
	AssignDelivery(ctx context.Context, actor Actor, orderID uuid.UUID, input AssignDeliveryInput) (*models.Order, error)
	MarkDelivered(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, input CancelInput) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type discountEngine interface {
	Resolve(ctx context.Context, code string) (*models.DiscountCode, error)
	CheckEligibility(ctx context.Context, row *models.DiscountCode, userID uuid.UUID, subtotal int64) error
}

type addressLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	tx           txRunner
	repo         Repository
	productRepo  products.Repository
	cartRepo     cart.Repository
	discountRepo discounts.Repository
	discountSvc  discountEngine
	addresses    addressLoader
	users        userLoader
	notifier     Notifier
	cfg          config.CheckoutConfig
	now          func() time.Time
}

// ServiceParams bundles the order engine dependencies.
type ServiceParams struct {
	Tx           txRunner
	Repo         Repository
	ProductRepo  products.Repository
	CartRepo     cart.Repository
	DiscountRepo discounts.Repository
	DiscountSvc  discountEngine
	Addresses    addressLoader
	Users        userLoader
	Notifier     Notifier
	Checkout     config.CheckoutConfig
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.DiscountRepo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if params.DiscountSvc == nil {
		return nil, fmt.Errorf("discount service required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address loader required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if params.Notifier == nil {
		params.Notifier = NopNotifier{}
	}
	if params.Checkout.OrderNumberAttempts <= 0 {
		params.Checkout.OrderNumberAttempts = 5
	}
	return &service{
		tx:           params.Tx,
		repo:         params.Repo,
		productRepo:  params.ProductRepo,
		cartRepo:     params.CartRepo,
		discountRepo: params.DiscountRepo,
		discountSvc:  params.DiscountSvc,
		addresses:    params.Addresses,
		users:        params.Users,
		notifier:     params.Notifier,
		cfg:          params.Checkout,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create turns the user's cart into an order. Everything that writes runs in
// one transaction: the guarded stock decrements, the discount use, the order
// with its items and initial PENDING history row, and the cart clear. Any
// failure rolls the whole bundle back, so stock is never left half-reserved.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	address, err := s.addresses.FindByID(ctx, input.AddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}

	record, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	// Pre-flight stock and pricing. The transaction re-checks stock with the
	// guarded decrement, so this pass exists to fail fast with a precise
	// message before any write.
	var subtotal int64
	lines := make([]models.OrderItem, 0, len(record.Items))
	quantities := make(map[uuid.UUID]int, len(record.Items))
	for _, item := range record.Items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
		}
		if !product.Purchasable() {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, product.Name+" is not available")
		}
		if product.StockQuantity < item.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for "+product.Name)
		}
		lineSubtotal := product.Price * int64(item.Quantity)
		lines = append(lines, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			SKU:         product.SKU,
			Image:       product.Image,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    lineSubtotal,
		})
		subtotal += lineSubtotal
		quantities[product.ID] = item.Quantity
	}

	var discount *models.DiscountCode
	var discountAmount int64
	if input.DiscountCode != nil && *input.DiscountCode != "" {
		discount, err = s.discountSvc.Resolve(ctx, *input.DiscountCode)
		if err != nil {
			return nil, err
		}
		if err := s.discountSvc.CheckEligibility(ctx, discount, userID, subtotal); err != nil {
			return nil, err
		}
		discountAmount = discounts.CalculateDiscount(subtotal, discount.Type, discount.Value)
	}

	total := subtotal + s.cfg.DeliveryFee - discountAmount

	var created *models.Order
	for attempt := 0; attempt < s.cfg.OrderNumberAttempts; attempt++ {
		orderNumber, err := NewOrderNumber(s.now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}

		order := &models.Order{
			OrderNumber:    orderNumber,
			UserID:         userID,
			AddressID:      address.ID,
			Subtotal:       subtotal,
			DiscountAmount: discountAmount,
			DeliveryFee:    s.cfg.DeliveryFee,
			Total:          total,
			PaymentMethod:  input.PaymentMethod,
			PaymentStatus:  enums.PaymentStatusPending,
			Status:         enums.OrderStatusPending,
			Notes:          input.Notes,
			Items:          cloneItems(lines),
		}
		if discount != nil {
			id := discount.ID
			order.DiscountCodeID = &id
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			productRepo := s.productRepo.WithTx(tx)
			for productID, qty := range quantities {
				ok, err := productRepo.DecrementStock(ctx, productID, qty)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
				}
				if !ok {
					return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
				}
				if err := productRepo.SyncStockStatus(ctx, productID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sync stock status")
				}
			}

			if discount != nil {
				ok, err := s.discountRepo.WithTx(tx).ConsumeUse(ctx, discount.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume discount use")
				}
				if !ok {
					return pkgerrors.New(pkgerrors.CodeConflict, "discount code has been fully redeemed")
				}
			}

			ordersRepo := s.repo.WithTx(tx)
			if _, err := ordersRepo.Create(ctx, order); err != nil {
				return err
			}
			if err := ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
				OrderID:   order.ID,
				Status:    enums.OrderStatusPending,
				ChangedBy: userID,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write order history")
			}

			if err := s.cartRepo.WithTx(tx).ClearItems(ctx, record.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
			}
			return nil
		})
		if err == nil {
			created = order
			break
		}
		if db.IsUniqueViolation(err, "") && pkgerrors.As(err) == nil {
			continue
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
	if created == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate an order number")
	}

	s.notifier.OrderCreated(ctx, created)
	return created, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List scopes orders to the actor: customers see their own, delivery staff
// see their assignments, ADMIN and STAFF see everything.
func (s *service) List(ctx context.Context, actor Actor, status *enums.OrderStatus, params pagination.Params) (pagination.Page[models.Order], error) {
	filter := ListFilter{Status: status}
	switch actor.Role {
	case enums.UserRoleCustomer:
		id := actor.ID
		filter.UserID = &id
	case enums.UserRoleDelivery:
		id := actor.ID
		filter.AssigneeID = &id
	case enums.UserRoleAdmin, enums.UserRoleStaff:
	default:
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot list orders")
	}

	params.Limit = pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filter, params.Limit, cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return pagination.BuildPage(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

// UpdateStatus advances the state machine from the back office. CANCELLED
// routes through the same compensation path as Cancel. ASSIGNED is reserved
// for AssignDelivery so an order never reaches it without an assignee.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, input UpdateStatusInput) (*models.Order, error) {
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if next == enums.OrderStatusAssigned {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assign a delivery user instead")
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	previous := order.Status
	if err := s.transition(ctx, order, next, actor.ID, input.Notes); err != nil {
		return nil, err
	}
	s.notifier.OrderStatusChanged(ctx, order, previous)
	return order, nil
}

// AssignDelivery moves the order to ASSIGNED and records who will carry it.
// The target must be an active DELIVERY user.
func (s *service) AssignDelivery(ctx context.Context, actor Actor, orderID uuid.UUID, input AssignDeliveryInput) (*models.Order, error) {
	courier, err := s.users.FindByID(ctx, input.DeliveryUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup delivery user")
	}
	if courier.Role != enums.UserRoleDelivery || !courier.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user cannot take deliveries")
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.AssignedDeliveryID = &courier.ID
	note := "assigned to " + courier.FullName()
	if err := s.transition(ctx, order, enums.OrderStatusAssigned, actor.ID, &note); err != nil {
		return nil, err
	}
	s.notifier.DeliveryAssigned(ctx, order, courier.ID)
	return order, nil
}

// MarkDelivered completes the order. Only the assigned courier may call it.
// Cash on delivery settles at the doorstep, so delivery also completes the
// payment.
func (s *service) MarkDelivered(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AssignedDeliveryID == nil || *order.AssignedDeliveryID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to you")
	}
	previous := order.Status
	if err := s.transition(ctx, order, enums.OrderStatusDelivered, actor.ID, nil); err != nil {
		return nil, err
	}
	s.notifier.OrderStatusChanged(ctx, order, previous)
	return order, nil
}

// Cancel aborts the order and reverses its inventory effects. Customers may
// cancel only their own orders; ADMIN and STAFF may cancel any.
func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, input CancelInput) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case enums.UserRoleAdmin, enums.UserRoleStaff:
	case enums.UserRoleCustomer:
		if order.UserID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot cancel another customer's order")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot cancel orders")
	}
	previous := order.Status
	if err := s.transition(ctx, order, enums.OrderStatusCancelled, actor.ID, input.Reason); err != nil {
		return nil, err
	}
	s.notifier.OrderStatusChanged(ctx, order, previous)
	return order, nil
}

// transition applies one state machine step in a transaction: validates the
// edge, stamps the lifecycle timestamp, appends exactly one history row, and
// on CANCELLED restores stock and sales counters. The order row write is
// guarded on the status the caller read, so two racing transitions cannot
// both commit. Terminal states reject all further transitions, which together
// with the guard makes the compensation exactly-once.
func (s *service) transition(ctx context.Context, order *models.Order, next enums.OrderStatus, actorID uuid.UUID, notes *string) error {
	if !order.Status.CanTransitionTo(next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	previous := order.Status
	now := s.now()
	order.Status = next
	switch next {
	case enums.OrderStatusConfirmed:
		order.ConfirmedAt = &now
	case enums.OrderStatusAssigned:
		order.AssignedAt = &now
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &now
		if order.PaymentMethod == enums.PaymentMethodCashOnDelivery {
			order.PaymentStatus = enums.PaymentStatusCompleted
			order.PaidAt = &now
		}
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.repo.WithTx(tx)
		updated, err := ordersRepo.Update(ctx, order, previous)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		if next == enums.OrderStatusCancelled {
			productRepo := s.productRepo.WithTx(tx)
			for _, item := range order.Items {
				if err := productRepo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore stock")
				}
				if err := productRepo.SyncStockStatus(ctx, item.ProductID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sync stock status")
				}
			}
		}
		if err := ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    next,
			Notes:     notes,
			ChangedBy: actorID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write order history")
		}
		return nil
	})
}

func (s *service) findOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup order")
	}
	return order, nil
}

func (s *service) authorizeRead(actor Actor, order *models.Order) error {
	switch actor.Role {
	case enums.UserRoleAdmin, enums.UserRoleStaff:
		return nil
	case enums.UserRoleCustomer:
		if order.UserID == actor.ID {
			return nil
		}
	case enums.UserRoleDelivery:
		if order.AssignedDeliveryID != nil && *order.AssignedDeliveryID == actor.ID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func cloneItems(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	copy(out, items)
	return out
}
