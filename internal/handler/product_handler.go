package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"emarket/internal/domain/model"
	"emarket/internal/middleware"
	"emarket/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /api/products。一覧・詳細は公開、作成・更新・削除は出品者だけ
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo, parser middleware.TokenParser) {
	g := e.Group("/api/products")
	g.GET("", h.list)

	seller := []echo.MiddlewareFunc{middleware.AuthJWT(parser), middleware.RoleGuard(model.RoleSeller)}
	g.GET("/seller", h.listMine, seller...)
	g.POST("", h.create, seller...)
	g.PUT("/:id", h.update, seller...)
	g.DELETE("/:id", h.delete, seller...)

	g.GET("/:id", h.detail)
}

func parseDecimalQuery(c echo.Context, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (h *ProductHandler) list(c echo.Context) error {
	minPrice, err := parseDecimalQuery(c, "minPrice")
	if err != nil {
		return badRequest(c, "invalid minPrice")
	}
	maxPrice, err := parseDecimalQuery(c, "maxPrice")
	if err != nil {
		return badRequest(c, "invalid maxPrice")
	}

	out, err := h.uc.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		SortBy:   c.QueryParam("sortBy"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) listMine(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ListSellerProducts(c.Request().Context(), sellerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// フォーム（multipart / urlencoded）か JSON から読んだ入力。送られなかった項目は nil
type productFields struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Stock       *int64
}

var errBadField = errors.New("invalid field")

func readProductFields(c echo.Context) (productFields, error) {
	var f productFields
	values := url.Values{}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var body map[string]json.RawMessage
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
			return f, errBadField
		}
		for k, raw := range body {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				values.Set(k, s)
				continue
			}
			values.Set(k, strings.TrimSpace(string(raw)))
		}
	} else {
		form, err := c.FormParams()
		if err != nil {
			return f, errBadField
		}
		values = form
	}

	str := func(key string) *string {
		if !values.Has(key) {
			return nil
		}
		v := values.Get(key)
		return &v
	}
	f.Name = str("name")
	f.Description = str("description")
	f.Category = str("category")

	if v := str("price"); v != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(*v))
		if err != nil {
			return f, errors.New("invalid price")
		}
		f.Price = &d
	}
	if v := str("stock"); v != nil {
		n, err := strconv.ParseInt(strings.TrimSpace(*v), 10, 64)
		if err != nil {
			return f, errors.New("invalid stock")
		}
		f.Stock = &n
	}
	return f, nil
}

// image フィールドがなければ nil
func readImage(c echo.Context) (*usecase.ImageUpload, func(), error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*usecase.ImageUpload, func(), error) {
	file, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &usecase.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        file,
	}, func() { _ = file.Close() }, nil
}

func (h *ProductHandler) create(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	f, err := readProductFields(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if f.Name == nil || f.Price == nil {
		return badRequest(c, "name and price are required")
	}
	img, closeImg, err := readImage(c)
	if err != nil {
		return badRequest(c, "invalid image")
	}
	defer closeImg()

	in := usecase.CreateProductInput{
		Name:  *f.Name,
		Price: *f.Price,
		Image: img,
	}
	if f.Description != nil {
		in.Description = *f.Description
	}
	if f.Category != nil {
		in.Category = *f.Category
	}
	if f.Stock != nil {
		in.Stock = *f.Stock
	}

	out, err := h.uc.CreateProduct(c.Request().Context(), sellerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *ProductHandler) update(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	f, err := readProductFields(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	img, closeImg, err := readImage(c)
	if err != nil {
		return badRequest(c, "invalid image")
	}
	defer closeImg()

	out, err := h.uc.UpdateProduct(c.Request().Context(), sellerID, id, usecase.UpdateProductInput{
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Category:    f.Category,
		Stock:       f.Stock,
		Image:       img,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) delete(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.DeleteProduct(c.Request().Context(), sellerID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "product removed"})
}
