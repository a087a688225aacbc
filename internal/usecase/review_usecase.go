package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"emarket/internal/domain/model"
	repo "emarket/internal/repository"
)

type ReviewUsecase struct {
	tx repo.TransactionManager
	//true なら注文に含まれる商品しかレビューできない
	requirePurchasedProduct bool
}

func NewReviewUsecase(tx repo.TransactionManager, requirePurchasedProduct bool) *ReviewUsecase {
	return &ReviewUsecase{tx: tx, requirePurchasedProduct: requirePurchasedProduct}
}

type CreateReviewInput struct {
	ProductID int64
	OrderID   int64
	Rating    int
	Comment   string
}

type ReviewOutput struct {
	ID        int64        `json:"id"`
	ProductID int64        `json:"productId"`
	OrderID   int64        `json:"orderId"`
	Buyer     *UserSummary `json:"buyer,omitempty"`
	BuyerID   int64        `json:"buyerId"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	Helpful   int64        `json:"helpful"`
	CreatedAt time.Time    `json:"createdAt"`
}

func toReviewOutput(r model.Review) ReviewOutput {
	out := ReviewOutput{
		ID:        r.ID,
		ProductID: r.ProductID,
		OrderID:   r.OrderID,
		BuyerID:   r.BuyerID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Helpful:   r.Helpful,
		CreatedAt: r.CreatedAt,
	}
	if r.Buyer != nil {
		// レビュー一覧にメールは出さない
		out.Buyer = &UserSummary{ID: r.Buyer.ID, Name: r.Buyer.Name}
	}
	return out
}

// 条件は上から順に判定する
func (u *ReviewUsecase) CreateReview(ctx context.Context, buyerID int64, in CreateReviewInput) (ReviewOutput, error) {
	if buyerID <= 0 {
		return ReviewOutput{}, Unauthorized("unauthorized")
	}
	comment := strings.TrimSpace(in.Comment)
	if in.Rating == 0 || comment == "" || in.ProductID <= 0 || in.OrderID <= 0 {
		return ReviewOutput{}, InvalidArgument("all fields are required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return ReviewOutput{}, InvalidArgument("rating must be between 1 and 5")
	}

	var out ReviewOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFound("order not found")
		}
		if err != nil {
			return Internal(err)
		}
		if o.BuyerID != buyerID {
			return Forbidden("not authorized")
		}
		if o.Status != model.OrderStatusDelivered {
			return InvalidState("can only review delivered products")
		}
		if u.requirePurchasedProduct && !o.ContainsProduct(in.ProductID) {
			return Forbidden("product is not part of this order")
		}

		exists, err := r.Reviews().ExistsByProductAndBuyer(ctx, in.ProductID, buyerID)
		if err != nil {
			return Internal(err)
		}
		if exists {
			return Conflict("already reviewed this product")
		}

		// 集計が競合しないよう商品行をロックしてから書く
		if _, err := r.Products().FindByIDForUpdate(ctx, in.ProductID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NotFound("product not found")
			}
			return Internal(err)
		}

		created, err := r.Reviews().Create(ctx, model.Review{
			ProductID: in.ProductID,
			BuyerID:   buyerID,
			OrderID:   in.OrderID,
			Rating:    in.Rating,
			Comment:   comment,
		})
		if errors.Is(err, repo.ErrDuplicate) {
			return Conflict("already reviewed this product")
		}
		if err != nil {
			return Internal(err)
		}

		if err := recomputeRating(ctx, r, in.ProductID); err != nil {
			return err
		}
		out = toReviewOutput(created)
		return nil
	})
	if err != nil {
		return ReviewOutput{}, err
	}
	return out, nil
}

// 投稿者本人だけ削除できる
func (u *ReviewUsecase) DeleteReview(ctx context.Context, buyerID int64, reviewID int64) error {
	if buyerID <= 0 {
		return Unauthorized("unauthorized")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rv, err := r.Reviews().FindByID(ctx, reviewID)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFound("review not found")
		}
		if err != nil {
			return Internal(err)
		}
		if rv.BuyerID != buyerID {
			return Forbidden("not authorized")
		}

		// 削除済みの商品なら集計は更新しない
		_, err = r.Products().FindByIDForUpdate(ctx, rv.ProductID)
		productLive := err == nil
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return Internal(err)
		}

		if err := r.Reviews().Delete(ctx, rv.ID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NotFound("review not found")
			}
			return Internal(err)
		}

		if productLive {
			return recomputeRating(ctx, r, rv.ProductID)
		}
		return nil
	})
}

func (u *ReviewUsecase) ListProductReviews(ctx context.Context, productID int64) ([]ReviewOutput, error) {
	var outs []ReviewOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		reviews, err := r.Reviews().ListByProduct(ctx, productID)
		if err != nil {
			return Internal(err)
		}
		outs = make([]ReviewOutput, 0, len(reviews))
		for _, rv := range reviews {
			outs = append(outs, toReviewOutput(rv))
		}
		return nil
	})
	if err != nil {
		return []ReviewOutput{}, err
	}
	return outs, nil
}

// 全レビューを数え直して商品に書く（0件なら 0 / 0）
func recomputeRating(ctx context.Context, r repo.TxRepos, productID int64) error {
	avg, count, err := r.Reviews().AggregateByProduct(ctx, productID)
	if err != nil {
		return Internal(err)
	}
	if count == 0 {
		avg = 0
	}
	if err := r.Products().UpdateRating(ctx, productID, avg, count); err != nil {
		return Internal(err)
	}
	return nil
}
