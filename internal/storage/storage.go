// Package storage is the blob store facade used for rendered agreements and
// shop logos. Retrieval happens through time-limited signed URLs; only keys
// are ever persisted.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

type Storage interface {
	Upload(ctx context.Context, data []byte, key string) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// AgreementKey namespaces a rendered agreement by shop and work order. The
// random suffix keeps repeated attempts from overwriting each other.
func AgreementKey(shopID, workOrderID uuid.UUID) string {
	return fmt.Sprintf("agreements/%s/%s/%s.pdf", shopID, workOrderID, uuid.New())
}

// cleanKey rejects absolute paths and parent traversal.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
