package auth

import (
	"errors"
	"time"

	"emarket/internal/domain/model"

	"golang.org/x/crypto/bcrypt"
)

var (
	// 入力が不正（詳細は %w でくるむ）
	ErrInvalidInput = errors.New("invalid input")

	// 競合
	ErrEmailAlreadyExists = errors.New("user already exists")

	// メールまたはパスワードが違う
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrUserNotFound = errors.New("user not found")

	// パスワード変更時の現在パスワード不一致
	ErrCurrentPasswordMismatch = errors.New("current password is incorrect")
)

// usecaseが依存する入力チェックの約束
type Validator interface {
	ValidateRegister(name, email, password string) error
	ValidateLogin(email, password string) error
	ValidateProfileUpdate(name *string, password string) error
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type UserDTO struct {
	ID      int64         `json:"id"`
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Role    string        `json:"role"`
	Address model.Address `json:"address"`
}

func toUserDTO(u model.User) UserDTO {
	return UserDTO{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    string(u.Role),
		Address: u.Address,
	}
}

// handlerがJSONにして返す
type AuthOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
