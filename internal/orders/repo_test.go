package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db"
	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
)

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  address_id TEXT NOT NULL,
  subtotal INTEGER NOT NULL,
  discount_amount INTEGER NOT NULL DEFAULT 0,
  delivery_fee INTEGER NOT NULL,
  total INTEGER NOT NULL,
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'PENDING',
  status TEXT NOT NULL DEFAULT 'PENDING',
  discount_code_id TEXT,
  notes TEXT,
  assigned_delivery_id TEXT,
  confirmed_at DATETIME,
  assigned_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);

CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  sku TEXT NOT NULL,
  image TEXT,
  quantity INTEGER NOT NULL,
  unit_price INTEGER NOT NULL,
  subtotal INTEGER NOT NULL,
  created_at DATETIME
);

CREATE TABLE IF NOT EXISTS order_status_history (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  notes TEXT,
  changed_by TEXT NOT NULL,
  created_at DATETIME
);`

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	client, err := db.NewSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	require.NoError(t, client.DB().Exec(ordersSchema).Error)
	return client.DB()
}

func newTestOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		OrderNumber:   fmt.Sprintf("PS-%s", uuid.NewString()[:9]),
		UserID:        userID,
		AddressID:     uuid.New(),
		Subtotal:      9000,
		DeliveryFee:   1000,
		Total:         10000,
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
		PaymentStatus: enums.PaymentStatusPending,
		Status:        enums.OrderStatusPending,
		Items: []models.OrderItem{
			{
				ProductID:   uuid.New(),
				ProductName: "Shea Butter Leave-In",
				SKU:         "PS-LEAVEIN-01",
				Quantity:    2,
				UnitPrice:   4500,
				Subtotal:    9000,
			},
		},
	}
}

func TestRepositoryCreatePersistsItems(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order, err := repo.Create(ctx, newTestOrder(uuid.New()))
	require.NoError(t, err)

	fetched, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, fetched.OrderNumber)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, int64(9000), fetched.Items[0].Subtotal)

	byNumber, err := repo.FindByOrderNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
}

func TestRepositoryRejectsDuplicateOrderNumber(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	first := newTestOrder(uuid.New())
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)

	dup := newTestOrder(uuid.New())
	dup.OrderNumber = first.OrderNumber
	_, err = repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "order_number"))
}

func TestRepositoryUpdateGuardsOnPriorStatus(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order, err := repo.Create(ctx, newTestOrder(uuid.New()))
	require.NoError(t, err)

	now := time.Now().UTC()
	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now

	updated, err := repo.Update(ctx, order, enums.OrderStatusPending)
	require.NoError(t, err)
	assert.True(t, updated)

	// The row is CANCELLED now, so a writer that still saw PENDING loses.
	updated, err = repo.Update(ctx, order, enums.OrderStatusPending)
	require.NoError(t, err)
	assert.False(t, updated)

	fetched, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, fetched.Status)
	require.NotNil(t, fetched.CancelledAt)
}

func TestRepositoryHistoryOrdering(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order, err := repo.Create(ctx, newTestOrder(uuid.New()))
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	admin := uuid.New()
	for i, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
	} {
		require.NoError(t, repo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    status,
			ChangedBy: admin,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	fetched, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, fetched.History, 3)
	assert.Equal(t, enums.OrderStatusPending, fetched.History[0].Status)
	assert.Equal(t, enums.OrderStatusProcessing, fetched.History[2].Status)
}

func TestRepositoryListFilters(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	courier := uuid.New()

	mine, err := repo.Create(ctx, newTestOrder(alice))
	require.NoError(t, err)

	theirs := newTestOrder(bob)
	theirs.Status = enums.OrderStatusAssigned
	theirs.AssignedDeliveryID = &courier
	_, err = repo.Create(ctx, theirs)
	require.NoError(t, err)

	rows, err := repo.List(ctx, ListFilter{UserID: &alice}, 10, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].ID)

	rows, err = repo.List(ctx, ListFilter{AssigneeID: &courier}, 10, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, theirs.ID, rows[0].ID)

	status := enums.OrderStatusAssigned
	rows, err = repo.List(ctx, ListFilter{Status: &status}, 10, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, theirs.ID, rows[0].ID)
}
