package discounts

import (
	"context"
	"fmt"
	"strings"
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

const discountsSchema = `
CREATE TABLE IF NOT EXISTS discount_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  value INTEGER NOT NULL,
  min_purchase_amount INTEGER,
  max_uses INTEGER,
  max_uses_per_user INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);

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
);`

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	client, err := db.NewSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	require.NoError(t, client.DB().Exec(discountsSchema).Error)
	return client.DB()
}

func mustCreateTestCode(t *testing.T, conn *gorm.DB, maxUses *int) *models.DiscountCode {
	t.Helper()
	now := time.Now().UTC()
	code := &models.DiscountCode{
		Code:      strings.ToUpper(fmt.Sprintf("PROMO%s", uuid.NewString()[:8])),
		Type:      enums.DiscountTypePercentage,
		Value:     10,
		MaxUses:   maxUses,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		IsActive:  true,
	}
	require.NoError(t, conn.Create(code).Error)
	return code
}

func TestRepositoryConsumeUseHonorsCap(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	maxUses := 2
	code := mustCreateTestCode(t, conn, &maxUses)

	for i := 0; i < 2; i++ {
		ok, err := repo.ConsumeUse(ctx, code.ID)
		require.NoError(t, err)
		require.True(t, ok, "use %d should succeed", i+1)
	}

	ok, err := repo.ConsumeUse(ctx, code.ID)
	require.NoError(t, err)
	assert.False(t, ok, "use past cap should fail")

	fetched, err := repo.FindByID(ctx, code.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.UsedCount)
}

func TestRepositoryConsumeUseUnlimited(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	code := mustCreateTestCode(t, conn, nil)

	for i := 0; i < 5; i++ {
		ok, err := repo.ConsumeUse(ctx, code.ID)
		require.NoError(t, err)
		require.True(t, ok, "unlimited use %d should succeed", i+1)
	}
}

func TestRepositoryFindByCodeIsCaseInsensitive(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	code := mustCreateTestCode(t, conn, nil)

	fetched, err := repo.FindByCode(ctx, strings.ToLower(code.Code))
	require.NoError(t, err)
	assert.Equal(t, code.ID, fetched.ID)
}

func TestRepositoryDeleteReportsMissingRows(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	code := mustCreateTestCode(t, conn, nil)

	deleted, err := repo.Delete(ctx, code.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, code.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRepositoryCountUserOrdersSkipsCancelled(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	code := mustCreateTestCode(t, conn, nil)
	userID := uuid.New()

	insertOrder := func(status enums.OrderStatus) {
		require.NoError(t, conn.Create(&models.Order{
			OrderNumber:    fmt.Sprintf("PS-%s", uuid.NewString()[:9]),
			UserID:         userID,
			AddressID:      uuid.New(),
			Subtotal:       5000,
			DeliveryFee:    1000,
			Total:          6000,
			PaymentMethod:  enums.PaymentMethodCashOnDelivery,
			PaymentStatus:  enums.PaymentStatusPending,
			Status:         status,
			DiscountCodeID: &code.ID,
		}).Error)
	}

	insertOrder(enums.OrderStatusPending)
	insertOrder(enums.OrderStatusDelivered)
	insertOrder(enums.OrderStatusCancelled)

	count, err := repo.CountUserOrders(ctx, userID, code.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
