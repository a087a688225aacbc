package storage

import (
	"context"
	"errors"
	"io"
)

// 商品画像の保存先。Save は公開用の参照パスを返し、Delete はその参照で消す
type ObjectStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// この保存先が発行した参照ではない
var ErrForeignRef = errors.New("reference not owned by this store")
