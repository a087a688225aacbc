package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ローカルディレクトリに置く。参照は <urlPrefix>/<key>
type FileStore struct {
	dir       string
	urlPrefix string
}

func NewFileStore(dir, urlPrefix string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) URLPrefix() string { return s.urlPrefix }

func (s *FileStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	name, err := safeName(key)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return path.Join(s.urlPrefix, name), nil
}

func (s *FileStore) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.urlPrefix+"/") {
		return ErrForeignRef
	}
	name, err := safeName(strings.TrimPrefix(ref, s.urlPrefix+"/"))
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// ディレクトリをまたぐ名前は受け付けない
func safeName(key string) (string, error) {
	name := filepath.Base(key)
	if name != key || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return name, nil
}
