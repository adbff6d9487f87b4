package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
)

// DiscountCode is a promotional code applied at checkout. Codes are stored
// upper-cased and compared case-insensitively.
type DiscountCode struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string             `gorm:"column:code;not null;uniqueIndex"`
	Type              enums.DiscountType `gorm:"column:type;type:text;not null"`
	Value             int64              `gorm:"column:value;not null"`
	MinPurchaseAmount *int64             `gorm:"column:min_purchase_amount"`
	MaxUses           *int               `gorm:"column:max_uses"`
	MaxUsesPerUser    *int               `gorm:"column:max_uses_per_user"`
	UsedCount         int                `gorm:"column:used_count;not null;default:0"`
	StartDate         time.Time          `gorm:"column:start_date;not null"`
	EndDate           time.Time          `gorm:"column:end_date;not null"`
	IsActive          bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
