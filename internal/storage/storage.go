// Package storage keeps uploaded media blobs, either on local disk or in
// ImageKit.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotConfigured = errors.New("blob storage is not configured")
	ErrInvalidKey    = errors.New("invalid blob key")
)

// Object describes a stored blob.
type Object struct {
	// Key identifies the blob for deletion: the file name on disk, or the
	// ImageKit file id.
	Key  string
	URL  string
	Name string
	Size int64
}

// BlobStore stores and deletes media blobs.
type BlobStore interface {
	Put(ctx context.Context, name, contentType string, body io.Reader) (Object, error)
	Delete(ctx context.Context, key string) error
}

// httpDoer is satisfied by *http.Client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// UniqueName builds the stored file name: upload date, a random id and the
// original extension.
func UniqueName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return fmt.Sprintf("%s-%s%s", now.Format("20060102"), uuid.NewString(), ext)
}
