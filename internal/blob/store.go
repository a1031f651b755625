package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the referenced asset does not exist in the store.
var ErrNotFound = errors.New("blob: asset not found")

// Store is the capability the application holds over binary asset storage.
// Put stores the content under the given key and returns the public URL of
// the stored asset; Delete removes the asset the URL refers to.
type Store interface {
	Put(ctx context.Context, key string, contentType string, content io.Reader) (string, error)
	Delete(ctx context.Context, assetURL string) error
}
