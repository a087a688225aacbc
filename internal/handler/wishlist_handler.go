package handler

import (
	"encoding/json"
	"net/http"

	"emarket/internal/domain/model"
	"emarket/internal/middleware"
	"emarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	uc *usecase.WishlistUsecase
}

func NewWishlistHandler(uc *usecase.WishlistUsecase) *WishlistHandler {
	return &WishlistHandler{uc: uc}
}

type addWishlistRequest struct {
	ProductID json.RawMessage `json:"productId"`
}

// 購入者だけ
func (h *WishlistHandler) RegisterRoutes(e *echo.Echo, parser middleware.TokenParser) {
	g := e.Group("/api/wishlist", middleware.AuthJWT(parser), middleware.RoleGuard(model.RoleBuyer))

	g.GET("", h.get)
	g.POST("", h.add)
	g.DELETE("/:productId", h.remove)
}

func (h *WishlistHandler) get(c echo.Context) error {
	buyerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.GetWishlist(c.Request().Context(), buyerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WishlistHandler) add(c echo.Context) error {
	buyerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req addWishlistRequest
	if err := bindJSON(c, &req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.AddToWishlist(c.Request().Context(), buyerID, looseID(req.ProductID))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WishlistHandler) remove(c echo.Context) error {
	buyerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return badRequest(c, "invalid productId")
	}

	out, err := h.uc.RemoveFromWishlist(c.Request().Context(), buyerID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
