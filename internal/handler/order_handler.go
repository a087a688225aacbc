package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"emarket/internal/domain/model"
	"emarket/internal/export"
	"emarket/internal/middleware"
	"emarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// quantity は数値でも文字列でも受ける
type createOrderItemRequest struct {
	Product  json.RawMessage `json:"product"`
	Quantity json.RawMessage `json:"quantity"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items"`
	ShippingAddress *model.Address           `json:"shippingAddress"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, parser middleware.TokenParser) {
	g := e.Group("/api/orders", middleware.AuthJWT(parser))

	buyer := middleware.RoleGuard(model.RoleBuyer)
	seller := middleware.RoleGuard(model.RoleSeller)

	g.POST("", h.create, buyer)
	g.GET("/my", h.listMine, buyer)
	g.GET("/seller", h.listSeller, seller)
	g.GET("/seller/export", h.exportSeller, seller)
	g.GET("/:id/history", h.history)
	g.PATCH("/:id/status", h.setStatus, seller)
}

func (h *OrderHandler) create(c echo.Context) error {
	buyerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req createOrderRequest
	if err := bindJSON(c, &req); err != nil {
		return badRequest(c, "invalid body")
	}

	items := make([]usecase.CreateOrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.CreateOrderItemInput{
			ProductID: looseID(it.Product),
			Quantity:  looseNumber(it.Quantity),
		})
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), buyerID, usecase.CreateOrderInput{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	buyerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), buyerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) listSeller(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ListSellerOrders(c.Request().Context(), sellerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// xlsx で返す。書き出しに失敗したら JSON のエラーにできるようバッファしてから送る
func (h *OrderHandler) exportSeller(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	orders, err := h.uc.ListSellerOrders(c.Request().Context(), sellerID)
	if err != nil {
		return writeError(c, err)
	}

	var buf bytes.Buffer
	if err := export.WriteSellerOrders(&buf, sellerID, orders); err != nil {
		return writeError(c, usecase.Internal(err))
	}

	name := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *OrderHandler) history(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.GetOrderHistory(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) setStatus(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req setStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.SetOrderStatus(c.Request().Context(), sellerID, id, usecase.SetOrderStatusInput{Status: req.Status})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
