package usecase

import (
	"context"
	"errors"

	"emarket/internal/domain/model"
	repo "emarket/internal/repository"
)

type WishlistUsecase struct {
	tx repo.TransactionManager
}

func NewWishlistUsecase(tx repo.TransactionManager) *WishlistUsecase {
	return &WishlistUsecase{tx: tx}
}

type WishlistOutput struct {
	ID       int64           `json:"id"`
	BuyerID  int64           `json:"buyerId"`
	Products []ProductOutput `json:"products"`
}

// 削除済みの商品は出さない
func toWishlistOutput(w model.Wishlist) WishlistOutput {
	products := make([]ProductOutput, 0, len(w.Items))
	for _, it := range w.Items {
		if it.Product == nil {
			continue
		}
		products = append(products, toProductOutput(*it.Product))
	}
	return WishlistOutput{ID: w.ID, BuyerID: w.BuyerID, Products: products}
}

// 初回は空のリストを作って返す
func (u *WishlistUsecase) GetWishlist(ctx context.Context, buyerID int64) (WishlistOutput, error) {
	if buyerID <= 0 {
		return WishlistOutput{}, Unauthorized("unauthorized")
	}

	var out WishlistOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Wishlists().GetOrCreate(ctx, buyerID); err != nil {
			return Internal(err)
		}
		w, err := r.Wishlists().FindByBuyer(ctx, buyerID)
		if err != nil {
			return Internal(err)
		}
		out = toWishlistOutput(w)
		return nil
	})
	if err != nil {
		return WishlistOutput{}, err
	}
	return out, nil
}

// すでに入っていれば Conflict
func (u *WishlistUsecase) AddToWishlist(ctx context.Context, buyerID int64, productID int64) (WishlistOutput, error) {
	if buyerID <= 0 {
		return WishlistOutput{}, Unauthorized("unauthorized")
	}
	if productID <= 0 {
		return WishlistOutput{}, InvalidArgument("productId is required")
	}

	var out WishlistOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NotFound("product not found")
			}
			return Internal(err)
		}

		if _, err := r.Wishlists().GetOrCreate(ctx, buyerID); err != nil {
			return Internal(err)
		}
		w, err := r.Wishlists().FindByBuyer(ctx, buyerID)
		if err != nil {
			return Internal(err)
		}
		if w.Contains(productID) {
			return Conflict("already in wishlist")
		}
		if err := r.Wishlists().AddItem(ctx, w.ID, productID); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return Conflict("already in wishlist")
			}
			return Internal(err)
		}

		w, err = r.Wishlists().FindByBuyer(ctx, buyerID)
		if err != nil {
			return Internal(err)
		}
		out = toWishlistOutput(w)
		return nil
	})
	if err != nil {
		return WishlistOutput{}, err
	}
	return out, nil
}

// 入っていなくても成功。リスト自体がなければ NotFound
func (u *WishlistUsecase) RemoveFromWishlist(ctx context.Context, buyerID int64, productID int64) (WishlistOutput, error) {
	if buyerID <= 0 {
		return WishlistOutput{}, Unauthorized("unauthorized")
	}

	var out WishlistOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		w, err := r.Wishlists().FindByBuyer(ctx, buyerID)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFound("wishlist not found")
		}
		if err != nil {
			return Internal(err)
		}

		if err := r.Wishlists().RemoveItem(ctx, w.ID, productID); err != nil {
			return Internal(err)
		}

		w, err = r.Wishlists().FindByBuyer(ctx, buyerID)
		if err != nil {
			return Internal(err)
		}
		out = toWishlistOutput(w)
		return nil
	})
	if err != nil {
		return WishlistOutput{}, err
	}
	return out, nil
}
