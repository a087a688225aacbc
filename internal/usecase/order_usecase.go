package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"emarket/internal/domain/model"
	repo "emarket/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 1明細あたりの数量上限
const maxOrderQuantity = 10000

// total 列は numeric(14,2)
var maxOrderTotal = decimal.RequireFromString("999999999999.99")

type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

type CreateOrderItemInput struct {
	ProductID int64
	//数値でなければ NaN のまま渡す
	Quantity float64
}

type CreateOrderInput struct {
	Items           []CreateOrderItemInput
	ShippingAddress *model.Address
}

type SetOrderStatusInput struct {
	Status string
}

type OrderItemOutput struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	SellerID  int64           `json:"sellerId"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	BuyerID         int64             `json:"buyerId"`
	Buyer           *UserSummary      `json:"buyer,omitempty"`
	Items           []OrderItemOutput `json:"items"`
	Total           decimal.Decimal   `json:"total"`
	Status          string            `json:"status"`
	PaymentMethod   string            `json:"paymentMethod"`
	ShippingAddress model.Address     `json:"shippingAddress"`
	CreatedAt       time.Time         `json:"createdAt"`
}

func toOrderOutput(o model.Order) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		out := OrderItemOutput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
			SellerID:  it.SellerID,
			Subtotal:  it.Subtotal(),
		}
		if it.Product != nil {
			out.Name = it.Product.Name
			out.Image = it.Product.Image
		}
		items = append(items, out)
	}

	out := OrderOutput{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		Items:           items,
		Total:           o.Total,
		Status:          string(o.Status),
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
	}
	if o.Buyer != nil {
		out.Buyer = toUserSummary(*o.Buyer)
	}
	return out
}

func toOrderOutputs(orders []model.Order) []OrderOutput {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return outs
}

// 数値でない・1未満は 1、小数は切り捨て。上限を超えたら false
func coerceQuantity(q float64) (int64, bool) {
	if math.IsNaN(q) || math.IsInf(q, -1) {
		return 1, true
	}
	n := math.Floor(q)
	if n < 1 {
		return 1, true
	}
	if n > maxOrderQuantity {
		return 0, false
	}
	return int64(n), true
}

// 注文作成。価格はサーバー側の現在価格を使う。在庫はここでは見ない
func (u *OrderUsecase) CreateOrder(ctx context.Context, buyerID int64, in CreateOrderInput) (OrderOutput, error) {
	if buyerID <= 0 {
		return OrderOutput{}, Unauthorized("unauthorized")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, InvalidArgument("no order items")
	}
	if in.ShippingAddress == nil {
		return OrderOutput{}, InvalidArgument("shipping address is required")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items := make([]model.OrderItem, 0, len(in.Items))
		resolved := make([]model.Product, 0, len(in.Items))
		total := decimal.Zero

		for _, it := range in.Items {
			qty, ok := coerceQuantity(it.Quantity)
			if !ok {
				return InvalidArgument(fmt.Sprintf("quantity must be <= %d", maxOrderQuantity))
			}

			p, err := r.Products().FindByID(ctx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NotFound(fmt.Sprintf("product not found: %d", it.ProductID))
			}
			if err != nil {
				return Internal(err)
			}

			line := model.OrderItem{
				ProductID: p.ID,
				Quantity:  qty,
				UnitPrice: p.Price,
				SellerID:  p.SellerID,
			}
			total = total.Add(line.Subtotal())
			items = append(items, line)
			resolved = append(resolved, p)
		}
		if total.GreaterThan(maxOrderTotal) {
			return InvalidArgument("order total must be <= " + maxOrderTotal.StringFixed(2))
		}

		created, err := r.Orders().Create(ctx, model.Order{
			BuyerID:         buyerID,
			Items:           items,
			Total:           total,
			Status:          model.OrderStatusPending,
			PaymentMethod:   model.PaymentMethodCOD,
			ShippingAddress: in.ShippingAddress.Normalize(),
		})
		if err != nil {
			return Internal(err)
		}
		// レスポンスには商品名・画像を載せる
		for i := range created.Items {
			if i < len(resolved) {
				created.Items[i].Product = &resolved[i]
			}
		}
		out = toOrderOutput(created)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, buyerID int64) ([]OrderOutput, error) {
	if buyerID <= 0 {
		return []OrderOutput{}, Unauthorized("unauthorized")
	}

	var outs []OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByBuyer(ctx, buyerID)
		if err != nil {
			return Internal(err)
		}
		outs = toOrderOutputs(orders)
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 自分の明細を含む注文（明細は他の出品者の分も含めて返す）
func (u *OrderUsecase) ListSellerOrders(ctx context.Context, sellerID int64) ([]OrderOutput, error) {
	if sellerID <= 0 {
		return []OrderOutput{}, Unauthorized("unauthorized")
	}

	var outs []OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListBySeller(ctx, sellerID)
		if err != nil {
			return Internal(err)
		}
		outs = toOrderOutputs(orders)
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// ステータス更新。
// pending→confirmed のときだけ、操作した出品者の明細分の在庫を引き当てる（0未満にはしない）。
// キャンセルしても在庫は戻さない
func (u *OrderUsecase) SetOrderStatus(ctx context.Context, sellerID int64, orderID int64, in SetOrderStatusInput) (OrderOutput, error) {
	if sellerID <= 0 {
		return OrderOutput{}, Unauthorized("unauthorized")
	}
	next, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return OrderOutput{}, InvalidArgument("invalid status")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFound("order not found")
		}
		if err != nil {
			return Internal(err)
		}

		if !CanSellerMutateOrder(o, sellerID) {
			return Forbidden("not authorized to update this order")
		}

		// すでに同じなら何もしない
		if o.Status == next {
			out = toOrderOutput(o)
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			return InvalidState(fmt.Sprintf("cannot change %s order to %s", o.Status, next))
		}

		if o.Status == model.OrderStatusPending && next == model.OrderStatusConfirmed {
			if err := allocateSellerStock(ctx, r, o, sellerID); err != nil {
				return err
			}
		}

		updated, err := r.Orders().UpdateStatusIf(ctx, o.ID, o.Status, next)
		if err != nil {
			return Internal(err)
		}
		if !updated {
			return InvalidState("order status was changed concurrently")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  sellerID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			Before:       jsonOf(map[string]any{"status": o.Status}),
			After:        jsonOf(map[string]any{"status": next}),
			CreatedAt:    time.Now(),
		}); err != nil {
			return Internal(err)
		}

		o.Status = next
		out = toOrderOutput(o)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 出品者の明細だけ在庫を減らす。同じ商品の明細はまとめ、ID順にロックする
func allocateSellerStock(ctx context.Context, r repo.TxRepos, o model.Order, sellerID int64) error {
	qtyByProduct := map[int64]int64{}
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			qtyByProduct[it.ProductID] += it.Quantity
		}
	}
	productIDs := make([]int64, 0, len(qtyByProduct))
	for id := range qtyByProduct {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	orderID := o.ID
	for _, pid := range productIDs {
		p, err := r.Products().FindByIDForUpdate(ctx, pid)
		if errors.Is(err, repo.ErrNotFound) {
			// 削除済みの商品は飛ばす
			continue
		}
		if err != nil {
			return Internal(err)
		}

		newStock := p.Stock - qtyByProduct[pid]
		if newStock < 0 {
			newStock = 0
		}
		if newStock == p.Stock {
			continue
		}

		if err := r.Inventory().SetStock(ctx, pid, newStock); err != nil {
			return Internal(err)
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   pid,
			ActorUserID: sellerID,
			OrderID:     &orderID,
			Delta:       newStock - p.Stock,
			Reason:      fmt.Sprintf("order %d confirmed", orderID),
		}); err != nil {
			return Internal(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  sellerID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   pid,
			Before:       jsonOf(map[string]any{"stock": p.Stock}),
			After:        jsonOf(map[string]any{"stock": newStock, "orderId": orderID}),
			CreatedAt:    time.Now(),
		}); err != nil {
			return Internal(err)
		}
	}
	return nil
}

type OrderHistoryEntry struct {
	Action      string          `json:"action"`
	ActorUserID int64           `json:"actorUserId"`
	Before      json.RawMessage `json:"before"`
	After       json.RawMessage `json:"after"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// 注文のステータス変更履歴。購入者本人か、明細を持つ出品者だけ見られる
func (u *OrderUsecase) GetOrderHistory(ctx context.Context, userID int64, orderID int64) ([]OrderHistoryEntry, error) {
	if userID <= 0 {
		return []OrderHistoryEntry{}, Unauthorized("unauthorized")
	}

	var outs []OrderHistoryEntry
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFound("order not found")
		}
		if err != nil {
			return Internal(err)
		}
		if o.BuyerID != userID && !o.HasItemsFromSeller(userID) {
			return Forbidden("not authorized to view this order")
		}

		rt := model.AuditResourceOrder
		logs, err := r.AuditLogs().List(ctx, repo.AuditLogFilter{
			ResourceType: &rt,
			ResourceID:   &o.ID,
			Limit:        200,
		})
		if err != nil {
			return Internal(err)
		}

		outs = make([]OrderHistoryEntry, 0, len(logs))
		for _, l := range logs {
			outs = append(outs, OrderHistoryEntry{
				Action:      string(l.Action),
				ActorUserID: l.ActorUserID,
				Before:      rawJSON(l.Before),
				After:       rawJSON(l.After),
				CreatedAt:   l.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return []OrderHistoryEntry{}, err
	}
	return outs, nil
}

func rawJSON(j datatypes.JSON) json.RawMessage {
	if len(j) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(j)
}

func jsonOf(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
