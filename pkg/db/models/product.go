package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
)

// Product represents a catalog listing. Prices are integer minor units of XAF.
type Product struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU               string                `gorm:"column:sku;not null;uniqueIndex"`
	Slug              string                `gorm:"column:slug;not null;uniqueIndex"`
	Name              string                `gorm:"column:name;not null"`
	Description       *string               `gorm:"column:description"`
	Category          enums.ProductCategory `gorm:"column:category;type:text;not null"`
	Price             int64                 `gorm:"column:price;not null"`
	CompareAtPrice    *int64                `gorm:"column:compare_at_price"`
	StockQuantity     int                   `gorm:"column:stock_quantity;not null;default:0"`
	LowStockThreshold int                   `gorm:"column:low_stock_threshold;not null;default:5"`
	Status            enums.ProductStatus   `gorm:"column:status;type:text;not null;default:'ACTIVE'"`
	SalesCount        int                   `gorm:"column:sales_count;not null;default:0"`
	ViewCount         int                   `gorm:"column:view_count;not null;default:0"`
	Image             *string               `gorm:"column:image"`
	DeletedAt         *time.Time            `gorm:"column:deleted_at;index"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// Purchasable reports whether the product can be added to carts and orders.
func (p Product) Purchasable() bool {
	return p.DeletedAt == nil && p.Status == enums.ProductStatusActive
}

// LowOnStock reports whether the product sits at or below its threshold.
func (p Product) LowOnStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}
