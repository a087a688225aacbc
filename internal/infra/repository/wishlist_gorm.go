package repository

import (
	"context"
	"errors"

	"emarket/internal/domain/model"
	repo "emarket/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistGormRepository struct {
	db *gorm.DB
}

func NewWishlistGormRepository(db *gorm.DB) *WishlistGormRepository {
	return &WishlistGormRepository{db: db}
}

func (r *WishlistGormRepository) FindByBuyer(ctx context.Context, buyerID int64) (model.Wishlist, error) {
	var w model.Wishlist
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.Product").
		Where("buyer_id = ?", buyerID).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Wishlist{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Wishlist{}, err
	}
	return w, nil
}

func (r *WishlistGormRepository) GetOrCreate(ctx context.Context, buyerID int64) (model.Wishlist, error) {
	// 同時に作られても1件にする
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "buyer_id"}}, DoNothing: true}).
		Create(&model.Wishlist{BuyerID: buyerID}).Error
	if err != nil {
		return model.Wishlist{}, err
	}

	var w model.Wishlist
	if err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).First(&w).Error; err != nil {
		return model.Wishlist{}, err
	}
	return w, nil
}

func (r *WishlistGormRepository) AddItem(ctx context.Context, wishlistID, productID int64) error {
	err := r.db.WithContext(ctx).Create(&model.WishlistItem{
		WishlistID: wishlistID,
		ProductID:  productID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrDuplicate
	}
	return err
}

func (r *WishlistGormRepository) RemoveItem(ctx context.Context, wishlistID, productID int64) error {
	return r.db.WithContext(ctx).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Delete(&model.WishlistItem{}).Error
}
