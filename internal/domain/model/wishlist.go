package model

import "time"

// 購入者ごとに1つ。初回アクセス時に作る
type Wishlist struct {
	ID      int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID int64          `gorm:"not null;uniqueIndex" json:"buyerId"`
	Items   []WishlistItem `gorm:"foreignKey:WishlistID" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (w Wishlist) Contains(productID int64) bool {
	for _, it := range w.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

type WishlistItem struct {
	ID         int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	WishlistID int64    `gorm:"not null;uniqueIndex:idx_wishlist_items_product" json:"wishlistId"`
	ProductID  int64    `gorm:"not null;uniqueIndex:idx_wishlist_items_product" json:"productId"`
	Product    *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}
