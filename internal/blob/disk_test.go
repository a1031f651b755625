package blob

import (
	contextpkg "context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), "/uploads/")
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	return store
}

func TestDiskStorePutAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := contextpkg.Background()

	assetURL, err := store.Put(ctx, "profile-pictures/user-1.jpg", "image/jpeg", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	if assetURL != "/uploads/profile-pictures/user-1.jpg" {
		t.Fatalf("unexpected asset url: %q", assetURL)
	}

	stored := filepath.Join(store.root, "profile-pictures", "user-1.jpg")
	data, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected file contents: %q", data)
	}

	if err := store.Delete(ctx, assetURL); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, stat err: %v", err)
	}
}

func TestDiskStoreDeleteMissingAsset(t *testing.T) {
	store := newTestStore(t)
	err := store.Delete(contextpkg.Background(), "/uploads/ghost.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDiskStoreRejectsForeignURL(t *testing.T) {
	store := newTestStore(t)
	if err := store.Delete(contextpkg.Background(), "https://elsewhere.example/a.jpg"); err == nil {
		t.Fatalf("expected foreign url rejection")
	}
}

func TestDiskStoreRejectsEscapingKeys(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Put(contextpkg.Background(), "../outside.jpg", "image/jpeg", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal key rejection")
	}
	if _, err := store.Put(contextpkg.Background(), "/etc/passwd", "image/jpeg", strings.NewReader("x")); err == nil {
		t.Fatalf("expected absolute key rejection")
	}
}

func TestNewDiskStoreValidation(t *testing.T) {
	if _, err := NewDiskStore("", "/uploads"); err == nil {
		t.Fatalf("expected missing root error")
	}
	if _, err := NewDiskStore(t.TempDir(), "  "); err == nil {
		t.Fatalf("expected missing base url error")
	}
}
