package auth

import (
	"context"
	"errors"
	"strings"

	"emarket/internal/domain/model"
	"emarket/internal/repository"
)

// nil / 空文字は変更しない
type UpdateProfileInput struct {
	Name    *string
	Address *model.Address
	//新しいパスワードを入れるときは CurrentPassword 必須
	Password        string
	CurrentPassword string
}

type ProfileUsecase struct {
	userRepo  repository.UserRepository
	validator Validator
	hasher    PasswordHasher
	verifier  PasswordVerifier
	clock     Clock
}

func NewProfileUsecase(
	userRepo repository.UserRepository,
	validator Validator,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	clock Clock,
) *ProfileUsecase {
	return &ProfileUsecase{
		userRepo:  userRepo,
		validator: validator,
		hasher:    hasher,
		verifier:  verifier,
		clock:     clock,
	}
}

func (u *ProfileUsecase) Get(ctx context.Context, userID int64) (UserDTO, error) {
	user, err := u.find(ctx, userID)
	if err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(*user), nil
}

func (u *ProfileUsecase) Update(ctx context.Context, userID int64, in UpdateProfileInput) (UserDTO, error) {
	if err := u.validator.ValidateProfileUpdate(in.Name, in.Password); err != nil {
		return UserDTO{}, err
	}

	user, err := u.find(ctx, userID)
	if err != nil {
		return UserDTO{}, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		user.Address = in.Address.Normalize()
	}
	if in.Password != "" {
		if in.CurrentPassword == "" || !u.verifier.Verify(in.CurrentPassword, user.PasswordHash) {
			return UserDTO{}, ErrCurrentPasswordMismatch
		}
		hashed, err := u.hasher.Hash(in.Password)
		if err != nil {
			return UserDTO{}, err
		}
		user.PasswordHash = hashed
	}
	user.UpdatedAt = u.clock.Now()

	if err := u.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return UserDTO{}, ErrUserNotFound
		}
		return UserDTO{}, err
	}
	return toUserDTO(*user), nil
}

func (u *ProfileUsecase) find(ctx context.Context, userID int64) (*model.User, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
