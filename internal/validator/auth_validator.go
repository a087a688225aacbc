package validator

import (
	"fmt"
	"net/mail"
	"strings"

	auth "emarket/internal/usecase/auth_usecase"
)

// パスワード最低文字数
const minPasswordLen = 6

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() auth.Validator {
	return &authValidator{}
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", auth.ErrInvalidInput, reason)
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(name, email, password string) error {
	// 必須チェック
	if strings.TrimSpace(name) == "" || email == "" || password == "" {
		return invalid("name, email and password are required")
	}
	if len(name) > 255 {
		return invalid("name too long")
	}
	if !isEmailLike(email) {
		return invalid("invalid email format")
	}
	if len(password) < minPasswordLen {
		return invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(email, password string) error {
	if email == "" || password == "" {
		return invalid("email and password are required")
	}
	return nil
}

func (v *authValidator) ValidateProfileUpdate(name *string, password string) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		return invalid("name must not be empty")
	}
	if password != "" && len(password) < minPasswordLen {
		return invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	return nil
}

// 表示名つき（"a <b@c>"）は受け付けない
func isEmailLike(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at:], ".")
}
