package repository

import (
	"context"

	"emarket/internal/domain/model"
)

type ReviewRepository interface {
	//同じ (product, buyer) があれば ErrDuplicate
	Create(ctx context.Context, review model.Review) (model.Review, error)
	FindByID(ctx context.Context, reviewID int64) (model.Review, error)
	ExistsByProductAndBuyer(ctx context.Context, productID, buyerID int64) (bool, error)
	//新しい順、投稿者つき
	ListByProduct(ctx context.Context, productID int64) ([]model.Review, error)
	Delete(ctx context.Context, reviewID int64) error

	//商品の全レビューから平均と件数を数え直す（0件なら 0, 0）
	AggregateByProduct(ctx context.Context, productID int64) (avg float64, count int64, err error)
}
