package repository

import (
	"context"

	"emarket/internal/domain/model"
)

type WishlistRepository interface {
	//Items と商品を preload して返す。なければ ErrNotFound
	FindByBuyer(ctx context.Context, buyerID int64) (model.Wishlist, error)
	//なければ作る
	GetOrCreate(ctx context.Context, buyerID int64) (model.Wishlist, error)

	//すでにあれば ErrDuplicate
	AddItem(ctx context.Context, wishlistID, productID int64) error
	//なくてもエラーにしない
	RemoveItem(ctx context.Context, wishlistID, productID int64) error
}
