package handler

import (
	"errors"
	"net/http"

	"emarket/internal/domain/model"
	"emarket/internal/middleware"
	auth "emarket/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase // 会員登録usecase
	loginUC    *auth.LoginUsecase        // ログインusecase
	profileUC  *auth.ProfileUsecase
}

// DIコンストラクタ
func NewAuthHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	profileUC *auth.ProfileUsecase,
) *AuthHandler {
	return &AuthHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
		profileUC:  profileUC,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name            *string        `json:"name"`
	Address         *model.Address `json:"address"`
	Password        string         `json:"password"`
	CurrentPassword string         `json:"currentPassword"`
}

// /api/auth を登録。register と login はレート制限つき
func (h *AuthHandler) RegisterRoutes(e *echo.Echo, parser middleware.TokenParser, limiter middleware.Limiter) {
	g := e.Group("/api/auth")

	g.POST("/register", h.register, middleware.RateLimit(limiter, "auth_register"))
	g.POST("/login", h.login, middleware.RateLimit(limiter, "auth_login"))

	g.GET("/profile", h.getProfile, middleware.AuthJWT(parser))
	g.PUT("/profile", h.updateProfile, middleware.AuthJWT(parser))
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) getProfile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.profileUC.Get(c.Request().Context(), userID)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) updateProfile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req updateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.profileUC.Update(c.Request().Context(), userID, auth.UpdateProfileInput{
		Name:            req.Name,
		Address:         req.Address,
		Password:        req.Password,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// auth usecase の sentinel error をステータスに変換
func writeAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "InvalidArgument"})
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "Conflict"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Kind: "Unauthorized"})
	case errors.Is(err, auth.ErrCurrentPasswordMismatch):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "InvalidArgument"})
	case errors.Is(err, auth.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "NotFound"})
	}
	return writeError(c, err)
}
