package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"emarket/internal/domain/model"
	repo "emarket/internal/repository"
	auth "emarket/internal/usecase/auth_usecase"
	"emarket/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUserRepo struct {
	seq   int64
	users map[int64]model.User
}

func (r *memUserRepo) Create(ctx context.Context, u *model.User) error {
	for _, x := range r.users {
		if x.Email == u.Email {
			return repo.ErrEmailTaken
		}
	}
	r.seq++
	u.ID = r.seq
	r.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (r *memUserRepo) Update(ctx context.Context, u *model.User) error {
	r.users[u.ID] = *u
	return nil
}

// 2回目から拒否する
type onceLimiter struct{ seen map[string]bool }

func (l *onceLimiter) Allow(ctx context.Context, key string) bool {
	if l.seen[key] {
		return false
	}
	l.seen[key] = true
	return true
}

func newAuthApp(limiter *onceLimiter) (*echo.Echo, *memUserRepo) {
	users := &memUserRepo{users: map[int64]model.User{}}
	v := validator.NewAuthValidator()
	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)
	verifier := auth.NewBcryptPasswordVerifier()
	clock := auth.SystemClock{}

	h := NewAuthHandler(
		auth.NewRegisterUserUsecase(users, v, hasher, testJWT, clock),
		auth.NewLoginUsecase(users, v, verifier, testJWT, clock),
		auth.NewProfileUsecase(users, v, hasher, verifier, clock),
	)

	e := echo.New()
	if limiter != nil {
		h.RegisterRoutes(e, testJWT, limiter)
	} else {
		h.RegisterRoutes(e, testJWT, nil)
	}
	return e, users
}

func TestAuth_RegisterLoginProfile(t *testing.T) {
	e, users := newAuthApp(nil)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"name":"Asha","email":"Asha@Example.com","password":"secret1","role":"seller"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg auth.AuthOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "asha@example.com", reg.User.Email)
	assert.Equal(t, "seller", reg.User.Role)
	assert.NotContains(t, rec.Body.String(), "secret1")
	assert.Len(t, users.users, 1)

	rec = doJSON(e, http.MethodPost, "/api/auth/login", `{"email":"asha@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login auth.AuthOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = doJSON(e, http.MethodGet, "/api/auth/profile", "", "Bearer "+login.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me auth.UserDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, reg.User.ID, me.ID)

	rec = doJSON(e, http.MethodPut, "/api/auth/profile",
		`{"name":"Asha R","address":{"city":"Pune"}}`, "Bearer "+login.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Pune", users.users[me.ID].Address.City)

	rec = doJSON(e, http.MethodPut, "/api/auth/profile",
		`{"password":"another1","currentPassword":"wrong"}`, "Bearer "+login.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_Errors(t *testing.T) {
	e, _ := newAuthApp(nil)
	body := `{"name":"B","email":"b@example.com","password":"secret1"}`

	rec := doJSON(e, http.MethodPost, "/api/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/register", `{"name":"C","email":"bad","password":"secret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/login", `{"email":"b@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/login", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/auth/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_LoginIsRateLimited(t *testing.T) {
	e, _ := newAuthApp(&onceLimiter{seen: map[string]bool{}})
	body := `{"email":"x@example.com","password":"secret1"}`

	rec := doJSON(e, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// スコープは別
	rec = doJSON(e, http.MethodPost, "/api/auth/register", `{"name":"X","email":"x@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}
