package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品
type Product struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//出品者
	SellerID int64 `gorm:"not null;index" json:"sellerId"`
	Seller   *User `gorm:"foreignKey:SellerID" json:"-"`

	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category    string          `gorm:"type:varchar(100);not null;default:'';index" json:"category"`

	//画像の参照パス（/uploads/xxx.png など）
	Image string `gorm:"type:varchar(512);not null;default:''" json:"image"`

	//在庫数
	Stock int64 `gorm:"not null;default:0" json:"stock"`

	//レビューから計算する。直接は更新しない
	Rating     float64 `gorm:"not null;default:0" json:"rating"`
	NumReviews int64   `gorm:"not null;default:0" json:"numReviews"`

	CreatedAt time.Time      `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
