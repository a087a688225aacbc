package usecase

import (
	"errors"
	"fmt"
)

// 失敗の種類。handler でステータスに変換する
type ErrorKind string

const (
	KindInvalidArgument ErrorKind = "InvalidArgument"
	KindNotFound        ErrorKind = "NotFound"
	KindForbidden       ErrorKind = "Forbidden"
	KindInvalidState    ErrorKind = "InvalidState"
	KindConflict        ErrorKind = "Conflict"
	KindUnauthorized    ErrorKind = "Unauthorized"
	KindInternal        ErrorKind = "Internal"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	// ログ用の元エラー（レスポンスには出さない）
	Err error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(kind ErrorKind, message string) error {
	return &AppError{Kind: kind, Message: message}
}

func InvalidArgument(message string) error { return newAppError(KindInvalidArgument, message) }
func NotFound(message string) error        { return newAppError(KindNotFound, message) }
func Forbidden(message string) error       { return newAppError(KindForbidden, message) }
func InvalidState(message string) error    { return newAppError(KindInvalidState, message) }
func Conflict(message string) error        { return newAppError(KindConflict, message) }
func Unauthorized(message string) error    { return newAppError(KindUnauthorized, message) }

// DB などの失敗。元エラーは Err に残す
func Internal(err error) error {
	return &AppError{Kind: KindInternal, Message: "server error", Err: err}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

// 種類だけ比べる（テスト・呼び出し側向け）
func IsKind(err error, kind ErrorKind) bool {
	ae, ok := AsAppError(err)
	return ok && ae.Kind == kind
}
