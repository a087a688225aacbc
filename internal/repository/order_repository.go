package repository

import (
	"context"

	"emarket/internal/domain/model"
)

type OrderRepository interface {
	//明細ごと作成する
	Create(ctx context.Context, order model.Order) (model.Order, error)
	//明細を preload して返す
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//行ロック付き（Tx内で使う）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)

	//購入者の注文（新しい順、明細と商品つき）
	ListByBuyer(ctx context.Context, buyerID int64) ([]model.Order, error)
	//出品者の明細を1つでも含む注文（新しい順、購入者と明細つき）
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error)

	//現在が from のときだけ to に更新する。更新できたら true
	UpdateStatusIf(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error)
}
