package model

import "time"

// 在庫変動の履歴（出品者の編集、注文確定時の引き当て）
type InventoryAdjustment struct {
	ID          int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64 `gorm:"not null;index" json:"productId"`
	ActorUserID int64 `gorm:"not null;index" json:"actorUserId"`

	//確定による引き当てのときだけ入る
	OrderID *int64 `gorm:"index" json:"orderId,omitempty"`

	Delta     int64     `gorm:"not null" json:"delta"`
	Reason    string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}
