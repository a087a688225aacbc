package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"testing"
	"time"

	"emarket/internal/domain/model"
	"emarket/internal/infra/token"
	repo "emarket/internal/repository"
	"emarket/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// =====================
// auth helper
// =====================

var testJWT = token.NewJWT("handler-test-secret", time.Hour)

func bearer(t *testing.T, userID int64, role model.Role) string {
	t.Helper()
	tok, _, err := testJWT.Issue(userID, role, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok
}

func doJSON(e *echo.Echo, method, path, body, authz string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type multipartFile struct {
	field, filename, contentType string
	body                         []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *multipartFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.filename+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// =====================
// fakes（handler から見える範囲だけ）
// =====================

type fakeProducts struct {
	seq   int64
	items map[int64]model.Product
	//最後に受け取った一覧条件
	lastQuery repo.ProductListQuery
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{items: map[int64]model.Product{}}
}

func (f *fakeProducts) add(p model.Product) model.Product {
	f.seq++
	p.ID = f.seq
	f.items[p.ID] = p
	return p
}

func (f *fakeProducts) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	f.lastQuery = q
	out := []model.Product{}
	for _, p := range f.items {
		if p.Stock > 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProducts) ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error) {
	out := []model.Product{}
	for _, p := range f.items {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	return f.add(p), nil
}

func (f *fakeProducts) Update(ctx context.Context, p model.Product) error {
	f.items[p.ID] = p
	return nil
}

func (f *fakeProducts) SoftDelete(ctx context.Context, id int64) error {
	delete(f.items, id)
	return nil
}

func (f *fakeProducts) UpdateRating(ctx context.Context, id int64, rating float64, numReviews int64) error {
	return nil
}

type fakeOrders struct {
	seq    int64
	orders map[int64]model.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[int64]model.Order{}}
}

func (f *fakeOrders) Create(ctx context.Context, o model.Order) (model.Order, error) {
	f.seq++
	o.ID = f.seq
	o.CreatedAt = time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) FindByIDForUpdate(ctx context.Context, id int64) (model.Order, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeOrders) ListByBuyer(ctx context.Context, buyerID int64) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range f.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range f.orders {
		if o.HasItemsFromSeller(sellerID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) UpdateStatusIf(ctx context.Context, id int64, from, to model.OrderStatus) (bool, error) {
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	f.orders[id] = o
	return true, nil
}

type noopInventory struct{}

func (noopInventory) SetStock(ctx context.Context, productID int64, newStock int64) error { return nil }
func (noopInventory) CreateAdjustment(ctx context.Context, a model.InventoryAdjustment) error {
	return nil
}
func (noopInventory) ListAdjustmentsByProduct(ctx context.Context, productID int64) ([]model.InventoryAdjustment, error) {
	return nil, nil
}

type noopAudit struct{}

func (noopAudit) Create(ctx context.Context, log model.AuditLog) error { return nil }
func (noopAudit) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	return nil, nil
}

// Users / Reviews / Wishlists はこのテストでは使わない
type fakeTx struct {
	products *fakeProducts
	orders   *fakeOrders
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error { return fn(t) }

func (t *fakeTx) Users() repo.UserRepository          { return nil }
func (t *fakeTx) Products() repo.ProductRepository    { return t.products }
func (t *fakeTx) Inventory() repo.InventoryRepository { return noopInventory{} }
func (t *fakeTx) Orders() repo.OrderRepository        { return t.orders }
func (t *fakeTx) Reviews() repo.ReviewRepository      { return nil }
func (t *fakeTx) Wishlists() repo.WishlistRepository  { return nil }
func (t *fakeTx) AuditLogs() repo.AuditLogRepository  { return noopAudit{} }

type fakeAssets struct {
	saved map[string]int
}

func (a *fakeAssets) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	ref := "/uploads/" + key
	a.saved[ref] = len(b)
	return ref, nil
}

func (a *fakeAssets) Delete(ctx context.Context, ref string) error {
	delete(a.saved, ref)
	return nil
}

type testApp struct {
	e        *echo.Echo
	products *fakeProducts
	orders   *fakeOrders
	assets   *fakeAssets
}

func newTestApp() *testApp {
	products := newFakeProducts()
	orders := newFakeOrders()
	tx := &fakeTx{products: products, orders: orders}
	assets := &fakeAssets{saved: map[string]int{}}

	e := echo.New()
	e.GET("/", Health)
	NewProductHandler(usecase.NewProductUsecase(products, tx, assets, 1<<20)).RegisterRoutes(e, testJWT)
	NewOrderHandler(usecase.NewOrderUsecase(tx)).RegisterRoutes(e, testJWT)
	NewReviewHandler(usecase.NewReviewUsecase(tx, false)).RegisterRoutes(e, testJWT)
	NewWishlistHandler(usecase.NewWishlistUsecase(tx)).RegisterRoutes(e, testJWT)

	return &testApp{e: e, products: products, orders: orders, assets: assets}
}

func (a *testApp) seedProduct(sellerID int64, name, price string, stock int64) model.Product {
	return a.products.add(model.Product{
		SellerID: sellerID,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	})
}
