package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// 支払い方法は代引きのみ
const PaymentMethodCOD = "COD"

// 5つのステータス以外は false
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	switch st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

// 終端（delivered / cancelled）
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// pending→confirmed→shipped→delivered の一本道。終端以外からは cancelled にできる
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return next == OrderStatusShipped
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// 注文。作成後に変わるのは Status だけ
type Order struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID int64 `gorm:"not null;index" json:"buyerId"`
	Buyer   *User `gorm:"foreignKey:BuyerID" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	//作成時に明細から計算し、以後は再計算しない
	Total decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`

	Status        OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentMethod string      `gorm:"type:varchar(20);not null;default:'COD'" json:"paymentMethod"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// 出品者の明細が1つでも含まれるか
func (o Order) HasItemsFromSeller(sellerID int64) bool {
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}

func (o Order) ContainsProduct(productID int64) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
