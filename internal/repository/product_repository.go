package repository

import (
	"context"
	"errors"

	"emarket/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反
var ErrDuplicate = errors.New("duplicate")

type ProductSort string

const (
	SortNewest     ProductSort = "newest"
	SortPriceAsc   ProductSort = "price-asc"
	SortPriceDesc  ProductSort = "price-desc"
	SortRatingDesc ProductSort = "rating-desc"
)

// 一覧検索。在庫0の商品は条件に関係なく出さない
type ProductListQuery struct {
	//商品名の部分一致（大文字小文字を区別しない）
	Name string
	//カテゴリの部分一致（同上）
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     ProductSort
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	//出品者の商品（在庫0も含む）
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error)
	//Seller を preload して返す
	FindByID(ctx context.Context, id int64) (model.Product, error)
	//行ロック付き（Tx内で使う）
	FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	//レビュー集計の書き込み
	UpdateRating(ctx context.Context, id int64, rating float64, numReviews int64) error
}
