package models

import "time"

// WishlistItem links an account to a liked product.
type WishlistItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID int64     `gorm:"column:account_id;not null;uniqueIndex:wishlist_items_account_product_key;index:wishlist_items_account_id_idx"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:wishlist_items_account_product_key;index:wishlist_items_product_id_idx"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (WishlistItem) TableName() string { return "wishlist_items" }
