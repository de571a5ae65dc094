package models

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry.
type Product struct {
	ID                int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	Code              string                `gorm:"column:code;not null;uniqueIndex:products_code_key"`
	Name              string                `gorm:"column:name;not null"`
	Description       string                `gorm:"column:description"`
	Image             string                `gorm:"column:image"`
	Category          string                `gorm:"column:category;index:products_category_idx"`
	Price             decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity          int                   `gorm:"column:quantity;not null"`
	InternalReference string                `gorm:"column:internal_reference"`
	ShellID           *int                  `gorm:"column:shell_id"`
	InventoryStatus   enums.InventoryStatus `gorm:"column:inventory_status;type:varchar(16);index:products_inventory_status_idx"`
	Rating            *int                  `gorm:"column:rating"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
