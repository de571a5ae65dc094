package models

import "time"

// CartItem is one product line in an account's cart.
type CartItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID int64     `gorm:"column:account_id;not null;uniqueIndex:cart_items_account_product_key;index:cart_items_account_id_idx"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:cart_items_account_product_key;index:cart_items_product_id_idx"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Version   int64     `gorm:"column:version;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string { return "cart_items" }
