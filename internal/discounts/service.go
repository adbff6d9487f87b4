package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/amaraokeke/pearlstrands-backend/pkg/db"
	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	pkgerrors "github.com/amaraokeke/pearlstrands-backend/pkg/errors"
)

// Quote is the result of validating a code against a cart subtotal.
type Quote struct {
	Code           string             `json:"code"`
	DiscountCodeID uuid.UUID          `json:"discountCodeId"`
	Type           enums.DiscountType `json:"type"`
	Amount         int64              `json:"amount"`
}

// CreateDiscountInput is the admin payload for a new code.
type CreateDiscountInput struct {
	Code              string             `json:"code" validate:"required"`
	Type              enums.DiscountType `json:"type" validate:"required"`
	Value             int64              `json:"value" validate:"required,gt=0"`
	MinPurchaseAmount *int64             `json:"minPurchaseAmount,omitempty"`
	MaxUses           *int               `json:"maxUses,omitempty"`
	MaxUsesPerUser    *int               `json:"maxUsesPerUser,omitempty"`
	StartDate         time.Time          `json:"startDate" validate:"required"`
	EndDate           time.Time          `json:"endDate" validate:"required"`
}

// UpdateDiscountInput holds optional admin mutations.
type UpdateDiscountInput struct {
	Value             *int64     `json:"value,omitempty"`
	MinPurchaseAmount *int64     `json:"minPurchaseAmount,omitempty"`
	MaxUses           *int       `json:"maxUses,omitempty"`
	MaxUsesPerUser    *int       `json:"maxUsesPerUser,omitempty"`
	StartDate         *time.Time `json:"startDate,omitempty"`
	EndDate           *time.Time `json:"endDate,omitempty"`
	IsActive          *bool      `json:"isActive,omitempty"`
}

// Service validates codes at checkout and manages them for the back office.
// Resolve and CheckEligibility exist for the order engine, which re-runs the
// rules inside its own transaction before consuming a use.
type Service interface {
	Validate(ctx context.Context, userID uuid.UUID, code string, subtotal int64) (*Quote, error)
	Resolve(ctx context.Context, code string) (*models.DiscountCode, error)
	CheckEligibility(ctx context.Context, row *models.DiscountCode, userID uuid.UUID, subtotal int64) error
	Create(ctx context.Context, input CreateDiscountInput) (*models.DiscountCode, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateDiscountInput) (*models.DiscountCode, error)
	List(ctx context.Context) ([]models.DiscountCode, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type discountRepository interface {
	Create(ctx context.Context, code *models.DiscountCode) (*models.DiscountCode, error)
	Update(ctx context.Context, code *models.DiscountCode) (*models.DiscountCode, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	List(ctx context.Context) ([]models.DiscountCode, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountUserOrders(ctx context.Context, userID, discountCodeID uuid.UUID) (int64, error)
}

type service struct {
	repo discountRepository
	now  func() time.Time
}

// NewService builds the discounts service.
func NewService(repo discountRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Validate resolves the code and prices it against the subtotal without
// consuming a use. Checkout repeats the usage checks inside its transaction.
func (s *service) Validate(ctx context.Context, userID uuid.UUID, code string, subtotal int64) (*Quote, error) {
	if subtotal <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be positive")
	}
	row, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.CheckEligibility(ctx, row, userID, subtotal); err != nil {
		return nil, err
	}
	return &Quote{
		Code:           row.Code,
		DiscountCodeID: row.ID,
		Type:           row.Type,
		Amount:         CalculateDiscount(subtotal, row.Type, row.Value),
	}, nil
}

// Resolve loads an applicable code for checkout. Exported for the order
// engine, which re-runs eligibility inside its own transaction.
func (s *service) Resolve(ctx context.Context, code string) (*models.DiscountCode, error) {
	return s.resolve(ctx, code)
}

func (s *service) resolve(ctx context.Context, code string) (*models.DiscountCode, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	row, err := s.repo.FindByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup discount code")
	}
	return row, nil
}

// CheckEligibility enforces every redemption rule except the atomic global
// cap, which ConsumeUse guards at commit time.
func (s *service) CheckEligibility(ctx context.Context, row *models.DiscountCode, userID uuid.UUID, subtotal int64) error {
	now := s.now()
	if !row.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code is not active")
	}
	if now.Before(row.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code is not yet active")
	}
	if now.After(row.EndDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code has expired")
	}
	if row.MaxUses != nil && row.UsedCount >= *row.MaxUses {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code has been fully redeemed")
	}
	if row.MinPurchaseAmount != nil && subtotal < *row.MinPurchaseAmount {
		return pkgerrors.New(pkgerrors.CodeValidation, "order subtotal below the code minimum")
	}
	if row.MaxUsesPerUser != nil {
		used, err := s.repo.CountUserOrders(ctx, userID, row.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count code usage")
		}
		if used >= int64(*row.MaxUsesPerUser) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount code usage limit reached")
		}
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateDiscountInput) (*models.DiscountCode, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.Value <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be positive")
	}
	if input.Type == enums.DiscountTypePercentage && input.Value > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}

	row, err := s.repo.Create(ctx, &models.DiscountCode{
		Code:              code,
		Type:              input.Type,
		Value:             input.Value,
		MinPurchaseAmount: input.MinPurchaseAmount,
		MaxUses:           input.MaxUses,
		MaxUsesPerUser:    input.MaxUsesPerUser,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		IsActive:          true,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create discount code")
	}
	return row, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateDiscountInput) (*models.DiscountCode, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup discount code")
	}

	if input.Value != nil {
		if *input.Value <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be positive")
		}
		if row.Type == enums.DiscountTypePercentage && *input.Value > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
		}
		row.Value = *input.Value
	}
	if input.MinPurchaseAmount != nil {
		row.MinPurchaseAmount = input.MinPurchaseAmount
	}
	if input.MaxUses != nil {
		row.MaxUses = input.MaxUses
	}
	if input.MaxUsesPerUser != nil {
		row.MaxUsesPerUser = input.MaxUsesPerUser
	}
	if input.StartDate != nil {
		row.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		row.EndDate = *input.EndDate
	}
	if !row.EndDate.After(row.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update discount code")
	}
	return updated, nil
}

func (s *service) List(ctx context.Context) ([]models.DiscountCode, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list discount codes")
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete discount code")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
	}
	return nil
}

// CalculateDiscount prices a code against a subtotal in XAF minor units.
// Percentage amounts truncate toward zero; fixed amounts never exceed the
// subtotal, so the order total cannot go negative.
func CalculateDiscount(subtotal int64, discountType enums.DiscountType, value int64) int64 {
	if subtotal <= 0 || value <= 0 {
		return 0
	}
	switch discountType {
	case enums.DiscountTypePercentage:
		amount := decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(value)).
			Div(decimal.NewFromInt(100)).
			Truncate(0)
		return amount.IntPart()
	case enums.DiscountTypeFixedAmount:
		if value > subtotal {
			return subtotal
		}
		return value
	default:
		return 0
	}
}
