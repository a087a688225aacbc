package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。注文時点の価格と出品者を持つスナップショット
type OrderItem struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"orderId"`

	ProductID int64 `gorm:"not null;index" json:"productId"`
	//一覧表示用。作成時には使わない
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unitPrice"`
	SellerID  int64           `gorm:"not null;index" json:"sellerId"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
}
