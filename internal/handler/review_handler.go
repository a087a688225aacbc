package handler

import (
	"encoding/json"
	"math"
	"net/http"

	"emarket/internal/domain/model"
	"emarket/internal/middleware"
	"emarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

// 数値文字列も受け付ける
type createReviewRequest struct {
	ProductID json.RawMessage `json:"productId"`
	OrderID   json.RawMessage `json:"orderId"`
	Rating    json.RawMessage `json:"rating"`
	Comment   string          `json:"comment"`
}

// 未指定は 0、整数でない・範囲外は -1（どちらも usecase で弾く）
func looseRating(raw json.RawMessage) int {
	f := looseNumber(raw)
	if math.IsNaN(f) {
		return 0
	}
	if f != math.Trunc(f) || f < 1 || f > 5 {
		return -1
	}
	return int(f)
}

func (h *ReviewHandler) RegisterRoutes(e *echo.Echo, parser middleware.TokenParser) {
	g := e.Group("/api/reviews")
	g.GET("/product/:productId", h.listByProduct)

	buyer := []echo.MiddlewareFunc{middleware.AuthJWT(parser), middleware.RoleGuard(model.RoleBuyer)}
	g.POST("", h.create, buyer...)
	g.DELETE("/:id", h.delete, buyer...)
}

func (h *ReviewHandler) create(c echo.Context) error {
	buyerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req createReviewRequest
	if err := bindJSON(c, &req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.CreateReview(c.Request().Context(), buyerID, usecase.CreateReviewInput{
		ProductID: looseID(req.ProductID),
		OrderID:   looseID(req.OrderID),
		Rating:    looseRating(req.Rating),
		Comment:   req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *ReviewHandler) delete(c echo.Context) error {
	buyerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.DeleteReview(c.Request().Context(), buyerID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "review deleted"})
}

func (h *ReviewHandler) listByProduct(c echo.Context) error {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return badRequest(c, "invalid productId")
	}

	out, err := h.uc.ListProductReviews(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
