package notifications

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	pkgerrors "github.com/amaraokeke/pearlstrands-backend/pkg/errors"
	"github.com/amaraokeke/pearlstrands-backend/pkg/logger"
	"github.com/amaraokeke/pearlstrands-backend/pkg/pagination"
)

type stubRepo struct {
	created  []models.Notification
	readable map[uuid.UUID]uuid.UUID
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	s.created = append(s.created, *n)
	return n, nil
}

func (s *stubRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int, cursor *pagination.Cursor) ([]models.Notification, error) {
	var rows []models.Notification
	for _, n := range s.created {
		if n.UserID == userID {
			rows = append(rows, n)
		}
	}
	return rows, nil
}

func (s *stubRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(s.created)), nil
}

func (s *stubRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (bool, error) {
	owner, ok := s.readable[notificationID]
	return ok && owner == userID, nil
}

func (s *stubRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	return int64(len(s.created)), nil
}

func newTestService(t *testing.T) (Service, *stubRepo) {
	t.Helper()
	repo := &stubRepo{readable: map[uuid.UUID]uuid.UUID{}}
	svc, err := NewService(repo, logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard}))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo
}

func TestOrderEventsCreateRows(t *testing.T) {
	svc, repo := newTestService(t)
	customerID := uuid.New()
	courierID := uuid.New()
	order := &models.Order{ID: uuid.New(), OrderNumber: "PS-123456001", UserID: customerID, Status: enums.OrderStatusConfirmed}

	svc.OrderCreated(context.Background(), order)
	svc.OrderStatusChanged(context.Background(), order, enums.OrderStatusPending)
	svc.DeliveryAssigned(context.Background(), order, courierID)

	if len(repo.created) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(repo.created))
	}
	if repo.created[0].Type != enums.NotificationTypeOrderCreated || repo.created[0].UserID != customerID {
		t.Fatalf("unexpected first notification: %+v", repo.created[0])
	}
	if repo.created[2].Type != enums.NotificationTypeDeliveryAssigned || repo.created[2].UserID != courierID {
		t.Fatalf("expected courier assignment notification, got %+v", repo.created[2])
	}
	for _, n := range repo.created {
		if n.OrderID == nil || *n.OrderID != order.ID {
			t.Fatalf("notification missing order reference: %+v", n)
		}
	}
}

func TestMarkReadScopesToOwner(t *testing.T) {
	svc, repo := newTestService(t)
	owner := uuid.New()
	notificationID := uuid.New()
	repo.readable[notificationID] = owner

	if err := svc.MarkRead(context.Background(), owner, notificationID); err != nil {
		t.Fatalf("owner mark read failed: %v", err)
	}

	err := svc.MarkRead(context.Background(), uuid.New(), notificationID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign notification, got %v", err)
	}
}
