package model

import "time"

// レビュー。(product_id, buyer_id) で一意
type Review struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64 `gorm:"not null;uniqueIndex:idx_reviews_product_buyer" json:"productId"`
	BuyerID   int64 `gorm:"not null;uniqueIndex:idx_reviews_product_buyer;index" json:"buyerId"`
	Buyer     *User `gorm:"foreignKey:BuyerID" json:"-"`
	OrderID   int64 `gorm:"not null;index" json:"orderId"`

	Rating  int    `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
	Comment string `gorm:"type:text;not null" json:"comment"`
	Helpful int64  `gorm:"not null;default:0" json:"helpful"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}
