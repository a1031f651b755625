package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	errMissingRoot    = errors.New("blob: root directory is required")
	errMissingBaseURL = errors.New("blob: base url is required")
	errForeignURL     = errors.New("blob: url does not belong to this store")
	errUnsafeKey      = errors.New("blob: key escapes the store root")
)

// DiskStore persists assets under a local directory and addresses them with
// URLs below a fixed base path.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore constructs a disk-backed store rooted at the given directory.
func NewDiskStore(root string, baseURL string) (*DiskStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errMissingRoot
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &DiskStore{root: root, baseURL: baseURL}, nil
}

// Put writes the content to disk under the key and returns its public URL.
func (s *DiskStore) Put(_ context.Context, key string, _ string, content io.Reader) (string, error) {
	path, err := s.pathForKey(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("blob: create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("blob: create file: %w", err)
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("blob: write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("blob: close file: %w", err)
	}

	return s.baseURL + "/" + filepath.ToSlash(key), nil
}

// Delete removes the asset the URL refers to. Deleting an asset that is
// already gone reports ErrNotFound.
func (s *DiskStore) Delete(_ context.Context, assetURL string) error {
	key, ok := strings.CutPrefix(assetURL, s.baseURL+"/")
	if !ok {
		return errForeignURL
	}
	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("blob: remove file: %w", err)
	}
	return nil
}

func (s *DiskStore) pathForKey(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", errUnsafeKey
	}
	return filepath.Join(s.root, cleaned), nil
}
