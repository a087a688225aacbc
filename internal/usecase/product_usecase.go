package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"emarket/internal/domain/model"
	"emarket/internal/logging"
	repo "emarket/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 画像の保存先（ローカル / MinIO）
type AssetStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// price 列は numeric(12,2)
var maxProductPrice = decimal.RequireFromString("9999999999.99")

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// multipart から受け取った画像
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ProductUsecase struct {
	products       repo.ProductRepository
	tx             repo.TransactionManager
	assets         AssetStore
	maxUploadBytes int64
}

// DI
func NewProductUsecase(products repo.ProductRepository, tx repo.TransactionManager, assets AssetStore, maxUploadBytes int64) *ProductUsecase {
	return &ProductUsecase{
		products:       products,
		tx:             tx,
		assets:         assets,
		maxUploadBytes: maxUploadBytes,
	}
}

type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserSummary(u model.User) *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

type ProductOutput struct {
	ID          int64           `json:"id"`
	SellerID    int64           `json:"sellerId"`
	Seller      *UserSummary    `json:"seller,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Stock       int64           `json:"stock"`
	Rating      float64         `json:"rating"`
	NumReviews  int64           `json:"numReviews"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func toProductOutput(p model.Product) ProductOutput {
	out := ProductOutput{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Image:       p.Image,
		Stock:       p.Stock,
		Rating:      p.Rating,
		NumReviews:  p.NumReviews,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Seller != nil {
		out.Seller = toUserSummary(*p.Seller)
	}
	return out
}

func toProductOutputs(ps []model.Product) []ProductOutput {
	outs := make([]ProductOutput, 0, len(ps))
	for _, p := range ps {
		outs = append(outs, toProductOutput(p))
	}
	return outs
}

// GET /products の入力
type ListProductsInput struct {
	Q        string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	SortBy   string
}

// 知らない値は newest
func parseProductSort(s string) repo.ProductSort {
	switch strings.TrimSpace(s) {
	case "price-asc":
		return repo.SortPriceAsc
	case "price-desc":
		return repo.SortPriceDesc
	case "rating", "rating-desc":
		return repo.SortRatingDesc
	}
	return repo.SortNewest
}

// 在庫のある商品だけ返す
func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) ([]ProductOutput, error) {
	if len(in.Q) > 100 || len(in.Category) > 100 {
		return []ProductOutput{}, InvalidArgument("search term too long")
	}

	ps, err := u.products.ListPublic(ctx, repo.ProductListQuery{
		Name:     strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     parseProductSort(in.SortBy),
	})
	if err != nil {
		return []ProductOutput{}, Internal(err)
	}
	return toProductOutputs(ps), nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (ProductOutput, error) {
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, NotFound("product not found")
	}
	if err != nil {
		return ProductOutput{}, Internal(err)
	}
	return toProductOutput(p), nil
}

// 出品者自身の商品（在庫0も含む）
func (u *ProductUsecase) ListSellerProducts(ctx context.Context, sellerID int64) ([]ProductOutput, error) {
	if sellerID <= 0 {
		return []ProductOutput{}, Unauthorized("unauthorized")
	}
	ps, err := u.products.ListBySeller(ctx, sellerID)
	if err != nil {
		return []ProductOutput{}, Internal(err)
	}
	return toProductOutputs(ps), nil
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int64
	Image       *ImageUpload
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, sellerID int64, in CreateProductInput) (ProductOutput, error) {
	if sellerID <= 0 {
		return ProductOutput{}, Unauthorized("unauthorized")
	}
	if err := validateProductFields(in.Name, in.Price, in.Stock); err != nil {
		return ProductOutput{}, err
	}

	imageRef, err := u.saveImage(ctx, in.Image)
	if err != nil {
		return ProductOutput{}, err
	}

	p, err := u.products.Create(ctx, model.Product{
		SellerID:    sellerID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Image:       imageRef,
		Stock:       in.Stock,
	})
	if err != nil {
		u.deleteAsset(ctx, imageRef)
		return ProductOutput{}, Internal(err)
	}
	return toProductOutput(p), nil
}

// nil のフィールドは変更しない
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Stock       *int64
	Image       *ImageUpload
}

func (u *ProductUsecase) UpdateProduct(ctx context.Context, sellerID int64, productID int64, in UpdateProductInput) (ProductOutput, error) {
	if sellerID <= 0 {
		return ProductOutput{}, Unauthorized("unauthorized")
	}

	current, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, NotFound("product not found")
	}
	if err != nil {
		return ProductOutput{}, Internal(err)
	}
	if current.SellerID != sellerID {
		return ProductOutput{}, Forbidden("not authorized to update this product")
	}

	newImage, err := u.saveImage(ctx, in.Image)
	if err != nil {
		return ProductOutput{}, err
	}

	var (
		out      ProductOutput
		oldImage string
	)
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFound("product not found")
		}
		if err != nil {
			return Internal(err)
		}
		before := p.Stock

		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			p.Description = strings.TrimSpace(*in.Description)
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.Category != nil {
			p.Category = strings.TrimSpace(*in.Category)
		}
		if in.Stock != nil {
			p.Stock = *in.Stock
		}
		if newImage != "" {
			oldImage = p.Image
			p.Image = newImage
		}
		if err := validateProductFields(p.Name, p.Price, p.Stock); err != nil {
			return err
		}

		if err := r.Products().Update(ctx, p); err != nil {
			return Internal(err)
		}

		if p.Stock != before {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   p.ID,
				ActorUserID: sellerID,
				Delta:       p.Stock - before,
				Reason:      "seller update",
			}); err != nil {
				return Internal(err)
			}
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  sellerID,
				Action:       model.AuditActionUpdateStock,
				ResourceType: model.AuditResourceProduct,
				ResourceID:   p.ID,
				Before:       jsonOf(map[string]any{"stock": before}),
				After:        jsonOf(map[string]any{"stock": p.Stock}),
				CreatedAt:    time.Now(),
			}); err != nil {
				return Internal(err)
			}
		}

		p.Seller = current.Seller
		out = toProductOutput(p)
		return nil
	})
	if err != nil {
		u.deleteAsset(ctx, newImage)
		return ProductOutput{}, err
	}

	u.deleteAsset(ctx, oldImage)
	return out, nil
}

// 論理削除。画像は消せなくても成功扱い
func (u *ProductUsecase) DeleteProduct(ctx context.Context, sellerID int64, productID int64) error {
	if sellerID <= 0 {
		return Unauthorized("unauthorized")
	}

	var image string
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFound("product not found")
		}
		if err != nil {
			return Internal(err)
		}
		if p.SellerID != sellerID {
			return Forbidden("not authorized to delete this product")
		}

		if err := r.Products().SoftDelete(ctx, p.ID); err != nil {
			return Internal(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  sellerID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   p.ID,
			Before:       jsonOf(map[string]any{"name": p.Name, "stock": p.Stock, "image": p.Image}),
			After:        jsonOf(nil),
			CreatedAt:    time.Now(),
		}); err != nil {
			return Internal(err)
		}
		image = p.Image
		return nil
	})
	if err != nil {
		return err
	}

	u.deleteAsset(ctx, image)
	return nil
}

func validateProductFields(name string, price decimal.Decimal, stock int64) error {
	if strings.TrimSpace(name) == "" {
		return InvalidArgument("name is required")
	}
	if len(name) > 255 {
		return InvalidArgument("name too long")
	}
	if price.IsNegative() {
		return InvalidArgument("price must be >= 0")
	}
	if price.GreaterThan(maxProductPrice) {
		return InvalidArgument("price must be <= " + maxProductPrice.StringFixed(2))
	}
	if !price.Equal(price.Truncate(2)) {
		return InvalidArgument("price must have at most 2 decimal places")
	}
	if stock < 0 {
		return InvalidArgument("stock must be >= 0")
	}
	return nil
}

// 画像がなければ空の参照を返す
func (u *ProductUsecase) saveImage(ctx context.Context, img *ImageUpload) (string, error) {
	if img == nil {
		return "", nil
	}
	ext, ok := allowedImageTypes[strings.ToLower(img.ContentType)]
	if !ok {
		return "", InvalidArgument("only image files (jpeg, jpg, png, webp) are allowed")
	}
	if img.Size > u.maxUploadBytes {
		return "", InvalidArgument(fmt.Sprintf("image must be <= %d bytes", u.maxUploadBytes))
	}
	if e := strings.ToLower(filepath.Ext(img.Filename)); e == ".jpeg" || e == ".jpg" || e == ".png" || e == ".webp" {
		ext = e
	}

	key := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
	ref, err := u.assets.Save(ctx, key, io.LimitReader(img.Body, u.maxUploadBytes+1), img.Size, img.ContentType)
	if err != nil {
		return "", Internal(err)
	}
	return ref, nil
}

// 失敗してもログだけ残す
func (u *ProductUsecase) deleteAsset(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := u.assets.Delete(ctx, ref); err != nil {
		logging.FromContext(ctx).Warn("image delete failed", "ref", ref, "error", err)
	}
}
