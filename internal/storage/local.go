package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes blobs under a directory served at urlPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
	now       func() time.Time
}

func NewLocalStore(dir, urlPrefix string) *LocalStore {
	prefix := "/" + strings.Trim(strings.TrimSpace(urlPrefix), "/")
	return &LocalStore{dir: dir, urlPrefix: prefix, now: time.Now}
}

// Put copies body into a new uniquely named file.
func (s *LocalStore) Put(ctx context.Context, name, contentType string, body io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Object{}, fmt.Errorf("create upload dir: %w", err)
	}

	filename := UniqueName(name, s.now())
	target := filepath.Join(s.dir, filename)
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create %s: %w", filename, err)
	}
	size, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(target)
		return Object{}, fmt.Errorf("write %s: %w", filename, errors.Join(copyErr, closeErr))
	}

	return Object{
		Key:  filename,
		URL:  path.Join(s.urlPrefix, filename),
		Name: filename,
		Size: size,
	}, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := filepath.Base(strings.TrimSpace(key))
	if name == "." || name == "/" || name == "" || name != strings.TrimSpace(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
