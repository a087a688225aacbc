package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"emarket/internal/domain/model"
	repo "emarket/internal/repository"

	"github.com/shopspring/decimal"
)

// =====================
// in-memory store（Tx 失敗時は丸ごと巻き戻す）
// =====================

type memStore struct {
	seq   int64
	clock time.Time

	users       map[int64]model.User
	products    map[int64]model.Product
	deleted     map[int64]bool
	orders      map[int64]model.Order
	reviews     map[int64]model.Review
	wishlists   map[int64]model.Wishlist
	wishItems   []model.WishlistItem
	adjustments []model.InventoryAdjustment
	audits      []model.AuditLog

	txCalls int
}

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:     map[int64]model.User{},
		products:  map[int64]model.Product{},
		deleted:   map[int64]bool{},
		orders:    map[int64]model.Order{},
		reviews:   map[int64]model.Review{},
		wishlists: map[int64]model.Wishlist{},
	}
}

func (s *memStore) nextID() int64 {
	s.seq++
	return s.seq
}

// 呼ぶたびに1秒進む（新しい順の並びを安定させる）
func (s *memStore) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() *memStore {
	cp := *s
	cp.users = cloneMap(s.users)
	cp.products = cloneMap(s.products)
	cp.deleted = cloneMap(s.deleted)
	cp.orders = cloneMap(s.orders)
	cp.reviews = cloneMap(s.reviews)
	cp.wishlists = cloneMap(s.wishlists)
	cp.wishItems = append([]model.WishlistItem(nil), s.wishItems...)
	cp.adjustments = append([]model.InventoryAdjustment(nil), s.adjustments...)
	cp.audits = append([]model.AuditLog(nil), s.audits...)
	return &cp
}

func (s *memStore) restore(from *memStore) {
	calls := s.txCalls
	*s = *from
	s.txCalls = calls
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.txCalls++
	before := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(before)
		return err
	}
	return nil
}

func (s *memStore) Users() repo.UserRepository          { return memUsers{s} }
func (s *memStore) Products() repo.ProductRepository    { return memProducts{s} }
func (s *memStore) Inventory() repo.InventoryRepository { return memInventory{s} }
func (s *memStore) Orders() repo.OrderRepository        { return memOrders{s} }
func (s *memStore) Reviews() repo.ReviewRepository      { return memReviews{s} }
func (s *memStore) Wishlists() repo.WishlistRepository  { return memWishlists{s} }
func (s *memStore) AuditLogs() repo.AuditLogRepository  { return memAudits{s} }

// =====================
// seed helpers
// =====================

func (s *memStore) addUser(name string, role model.Role) model.User {
	u := model.User{ID: s.nextID(), Name: name, Email: strings.ToLower(name) + "@example.com", Role: role}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addProduct(sellerID int64, name, price string, stock int64) model.Product {
	p := model.Product{
		ID:        s.nextID(),
		SellerID:  sellerID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		CreatedAt: s.now(),
	}
	s.products[p.ID] = p
	return p
}

func (s *memStore) addOrder(buyerID int64, status model.OrderStatus, items ...model.OrderItem) model.Order {
	o := model.Order{
		ID:            s.nextID(),
		BuyerID:       buyerID,
		Status:        status,
		PaymentMethod: model.PaymentMethodCOD,
		CreatedAt:     s.now(),
	}
	total := decimal.Zero
	for _, it := range items {
		it.ID = s.nextID()
		it.OrderID = o.ID
		o.Items = append(o.Items, it)
		total = total.Add(it.Subtotal())
	}
	o.Total = total
	s.orders[o.ID] = o
	return o
}

func (s *memStore) stockOf(productID int64) int64 {
	return s.products[productID].Stock
}

// =====================
// users
// =====================

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *model.User) error {
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repo.ErrEmailTaken
		}
	}
	user.ID = r.s.nextID()
	r.s.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	u, ok := r.s.users[userID]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (r memUsers) Update(ctx context.Context, user *model.User) error {
	if _, ok := r.s.users[user.ID]; !ok {
		return repo.ErrUserNotFound
	}
	r.s.users[user.ID] = *user
	return nil
}

// =====================
// products（SQL の絞り込みと同じ条件）
// =====================

type memProducts struct{ s *memStore }

func (r memProducts) withSeller(p model.Product) model.Product {
	if u, ok := r.s.users[p.SellerID]; ok {
		p.Seller = &u
	}
	return p
}

func (r memProducts) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	out := []model.Product{}
	for id, p := range r.s.products {
		if r.s.deleted[id] || p.Stock <= 0 {
			continue
		}
		if q.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Name)) {
			continue
		}
		if q.Category != "" && !strings.Contains(strings.ToLower(p.Category), strings.ToLower(q.Category)) {
			continue
		}
		if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		out = append(out, r.withSeller(p))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch q.Sort {
		case repo.SortPriceAsc:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case repo.SortPriceDesc:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
		case repo.SortRatingDesc:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (r memProducts) ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error) {
	out := []model.Product{}
	for id, p := range r.s.products {
		if !r.s.deleted[id] && p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.s.products[id]
	if !ok || r.s.deleted[id] {
		return model.Product{}, repo.ErrNotFound
	}
	return r.withSeller(p), nil
}

func (r memProducts) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.s.products[id]
	if !ok || r.s.deleted[id] {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p.ID = r.s.nextID()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	p.Seller = nil
	r.s.products[p.ID] = p
	return p, nil
}

func (r memProducts) Update(ctx context.Context, p model.Product) error {
	cur, ok := r.s.products[p.ID]
	if !ok || r.s.deleted[p.ID] {
		return repo.ErrNotFound
	}
	// 集計値はここでは書かない
	p.Rating = cur.Rating
	p.NumReviews = cur.NumReviews
	p.Seller = nil
	r.s.products[p.ID] = p
	return nil
}

func (r memProducts) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := r.s.products[id]; !ok || r.s.deleted[id] {
		return repo.ErrNotFound
	}
	r.s.deleted[id] = true
	return nil
}

func (r memProducts) UpdateRating(ctx context.Context, id int64, rating float64, numReviews int64) error {
	p, ok := r.s.products[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.Rating = rating
	p.NumReviews = numReviews
	r.s.products[id] = p
	return nil
}

// =====================
// inventory
// =====================

type memInventory struct{ s *memStore }

func (r memInventory) SetStock(ctx context.Context, productID int64, newStock int64) error {
	p, ok := r.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = newStock
	r.s.products[productID] = p
	return nil
}

func (r memInventory) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	adjustment.ID = r.s.nextID()
	r.s.adjustments = append(r.s.adjustments, adjustment)
	return nil
}

func (r memInventory) ListAdjustmentsByProduct(ctx context.Context, productID int64) ([]model.InventoryAdjustment, error) {
	out := []model.InventoryAdjustment{}
	for _, a := range r.s.adjustments {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	return out, nil
}

// =====================
// orders（商品は削除済みでも引く）
// =====================

type memOrders struct{ s *memStore }

func (r memOrders) withProducts(o model.Order) model.Order {
	items := make([]model.OrderItem, len(o.Items))
	for i, it := range o.Items {
		if p, ok := r.s.products[it.ProductID]; ok {
			it.Product = &p
		}
		items[i] = it
	}
	o.Items = items
	return o
}

func (r memOrders) Create(ctx context.Context, order model.Order) (model.Order, error) {
	order.ID = r.s.nextID()
	order.CreatedAt = r.s.now()
	order.UpdatedAt = order.CreatedAt
	items := make([]model.OrderItem, len(order.Items))
	for i, it := range order.Items {
		it.ID = r.s.nextID()
		it.OrderID = order.ID
		it.Product = nil
		items[i] = it
	}
	order.Items = items
	r.s.orders[order.ID] = order
	return order, nil
}

func (r memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return r.withProducts(o), nil
}

func (r memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) list(match func(model.Order) bool) []model.Order {
	out := []model.Order{}
	for _, o := range r.s.orders {
		if match(o) {
			o = r.withProducts(o)
			if u, ok := r.s.users[o.BuyerID]; ok {
				o.Buyer = &u
			}
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memOrders) ListByBuyer(ctx context.Context, buyerID int64) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.BuyerID == buyerID }), nil
}

func (r memOrders) ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.HasItemsFromSeller(sellerID) }), nil
}

func (r memOrders) UpdateStatusIf(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error) {
	o, ok := r.s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	r.s.orders[orderID] = o
	return true, nil
}

// =====================
// reviews
// =====================

type memReviews struct{ s *memStore }

func (r memReviews) Create(ctx context.Context, review model.Review) (model.Review, error) {
	for _, rv := range r.s.reviews {
		if rv.ProductID == review.ProductID && rv.BuyerID == review.BuyerID {
			return model.Review{}, repo.ErrDuplicate
		}
	}
	review.ID = r.s.nextID()
	review.CreatedAt = r.s.now()
	r.s.reviews[review.ID] = review
	return review, nil
}

func (r memReviews) FindByID(ctx context.Context, reviewID int64) (model.Review, error) {
	rv, ok := r.s.reviews[reviewID]
	if !ok {
		return model.Review{}, repo.ErrNotFound
	}
	return rv, nil
}

func (r memReviews) ExistsByProductAndBuyer(ctx context.Context, productID, buyerID int64) (bool, error) {
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID && rv.BuyerID == buyerID {
			return true, nil
		}
	}
	return false, nil
}

func (r memReviews) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	out := []model.Review{}
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			if u, ok := r.s.users[rv.BuyerID]; ok {
				rv.Buyer = &u
			}
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memReviews) Delete(ctx context.Context, reviewID int64) error {
	if _, ok := r.s.reviews[reviewID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.reviews, reviewID)
	return nil
}

func (r memReviews) AggregateByProduct(ctx context.Context, productID int64) (float64, int64, error) {
	var sum, n int64
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			sum += int64(rv.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}

// =====================
// wishlists
// =====================

type memWishlists struct{ s *memStore }

func (r memWishlists) FindByBuyer(ctx context.Context, buyerID int64) (model.Wishlist, error) {
	for _, w := range r.s.wishlists {
		if w.BuyerID != buyerID {
			continue
		}
		w.Items = []model.WishlistItem{}
		for _, it := range r.s.wishItems {
			if it.WishlistID != w.ID {
				continue
			}
			if p, ok := r.s.products[it.ProductID]; ok && !r.s.deleted[it.ProductID] {
				it.Product = &p
			}
			w.Items = append(w.Items, it)
		}
		return w, nil
	}
	return model.Wishlist{}, repo.ErrNotFound
}

func (r memWishlists) GetOrCreate(ctx context.Context, buyerID int64) (model.Wishlist, error) {
	for _, w := range r.s.wishlists {
		if w.BuyerID == buyerID {
			return w, nil
		}
	}
	w := model.Wishlist{ID: r.s.nextID(), BuyerID: buyerID, CreatedAt: r.s.now()}
	r.s.wishlists[w.ID] = w
	return w, nil
}

func (r memWishlists) AddItem(ctx context.Context, wishlistID, productID int64) error {
	for _, it := range r.s.wishItems {
		if it.WishlistID == wishlistID && it.ProductID == productID {
			return repo.ErrDuplicate
		}
	}
	r.s.wishItems = append(r.s.wishItems, model.WishlistItem{
		ID:         r.s.nextID(),
		WishlistID: wishlistID,
		ProductID:  productID,
	})
	return nil
}

func (r memWishlists) RemoveItem(ctx context.Context, wishlistID, productID int64) error {
	kept := r.s.wishItems[:0]
	for _, it := range r.s.wishItems {
		if it.WishlistID == wishlistID && it.ProductID == productID {
			continue
		}
		kept = append(kept, it)
	}
	r.s.wishItems = kept
	return nil
}

// =====================
// audit logs
// =====================

type memAudits struct{ s *memStore }

func (r memAudits) Create(ctx context.Context, log model.AuditLog) error {
	log.ID = r.s.nextID()
	r.s.audits = append(r.s.audits, log)
	return nil
}

func (r memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for _, l := range r.s.audits {
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// =====================
// asset store
// =====================

type memAssets struct {
	saved     map[string][]byte
	deleted   []string
	saveErr   error
	deleteErr error
}

func newMemAssets() *memAssets {
	return &memAssets{saved: map[string][]byte{}}
}

func (a *memAssets) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if a.saveErr != nil {
		return "", a.saveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	ref := "/uploads/" + key
	a.saved[ref] = buf.Bytes()
	return ref, nil
}

func (a *memAssets) Delete(ctx context.Context, ref string) error {
	a.deleted = append(a.deleted, ref)
	if a.deleteErr != nil {
		return a.deleteErr
	}
	if _, ok := a.saved[ref]; !ok {
		return errors.New("no such object")
	}
	delete(a.saved, ref)
	return nil
}
