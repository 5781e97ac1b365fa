package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngPayload(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestSaveStoresDecodableImage(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	ref, err := store.Save(context.Background(), bytes.NewReader(pngPayload(t)))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if !strings.HasPrefix(ref, "recipes/") || !strings.HasSuffix(ref, ".png") {
		t.Fatalf("unexpected reference %q", ref)
	}
	if _, err := os.Stat(store.Path(ref)); err != nil {
		t.Fatalf("expected stored file to exist: %v", err)
	}
}

func TestSaveRejectsNonImagePayload(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	_, err = store.Save(context.Background(), strings.NewReader("definitely not an image"))
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "recipes"))
	if err != nil {
		t.Fatalf("read media dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files after rejected upload, found %d", len(entries))
	}
}

func TestRemoveDeletesStoredFile(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	ref, err := store.Save(context.Background(), bytes.NewReader(pngPayload(t)))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Remove(ref); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, err := os.Stat(store.Path(ref)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file to be gone, got %v", err)
	}

	// Removing again is not an error.
	if err := store.Remove(ref); err != nil {
		t.Fatalf("Remove of missing file returned error: %v", err)
	}
}

func TestRemoveRejectsEscapingReference(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	if err := store.Remove("../outside.png"); err == nil {
		t.Fatal("expected error for reference escaping the media root")
	}
}

func TestNewStoreRequiresDirectory(t *testing.T) {
	t.Parallel()

	if _, err := NewStore("   "); err == nil {
		t.Fatal("expected error for blank media directory")
	}
}
