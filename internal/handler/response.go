package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"emarket/internal/logging"
	"emarket/internal/middleware"
	"emarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

// エラーレスポンス。kind は usecase.ErrorKind
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func statusForKind(kind usecase.ErrorKind) int {
	switch kind {
	case usecase.KindInvalidArgument, usecase.KindInvalidState:
		return http.StatusBadRequest
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindForbidden:
		return http.StatusForbidden
	case usecase.KindConflict:
		return http.StatusConflict
	case usecase.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	ae, ok := usecase.AsAppError(err)
	if !ok {
		ae = &usecase.AppError{Kind: usecase.KindInternal, Message: "server error", Err: err}
	}
	status := statusForKind(ae.Kind)

	//500 の元エラーはログにだけ出す
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("request failed",
			"path", c.Path(),
			"error", err,
		)
	}
	return c.JSON(status, ErrorResponse{Error: ae.Message, Kind: string(ae.Kind)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: string(usecase.KindInvalidArgument)})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Kind: string(usecase.KindUnauthorized)})
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 数値か数値文字列を float に。どちらでもなければ NaN
func looseNumber(raw json.RawMessage) float64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return math.NaN()
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		s = strings.TrimSpace(str)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ID は数値か数値文字列。読めなければ 0
func looseID(raw json.RawMessage) int64 {
	f := looseNumber(raw)
	if math.IsNaN(f) || f != math.Trunc(f) || f <= 0 || f > math.MaxInt64/2 {
		return 0
	}
	return int64(f)
}

var errEmptyBody = errors.New("empty body")

// echo の Bind はボディが空でもエラーにしないので明示的に弾く
func bindJSON(c echo.Context, dst any) error {
	if c.Request().ContentLength == 0 {
		return errEmptyBody
	}
	return c.Bind(dst)
}
