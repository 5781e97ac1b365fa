// Package media stores uploaded recipe images on the local filesystem.
// Payloads are decoded before anything touches disk, so a rejected upload
// leaves no partial state behind.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/google/uuid"

	applog "recipebox/internal/log"
)

// ErrNotImage reports that an uploaded payload could not be decoded as an
// image in any supported format.
var ErrNotImage = errors.New("media: payload is not a decodable image")

// Store writes image files beneath a root directory and hands back relative
// references suitable for persisting on a recipe row.
type Store struct {
	root string
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("media: root directory must not be empty")
	}
	if err := os.MkdirAll(filepath.Join(dir, "recipes"), 0o755); err != nil {
		return nil, fmt.Errorf("media: create root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Save validates that r contains a decodable image and writes it under the
// store root with a generated name. It returns the stored reference.
func (s *Store) Save(ctx context.Context, r io.Reader) (string, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("media: read payload: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		applog.Debug(ctx, "rejected upload that is not an image", "error", err)
		return "", ErrNotImage
	}

	ref := filepath.ToSlash(filepath.Join("recipes", uuid.NewString()+"."+extension(format)))
	path := filepath.Join(s.root, filepath.FromSlash(ref))

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("media: write image: %w", err)
	}

	applog.Debug(ctx, "stored recipe image", "ref", ref, "format", format, "bytes", len(payload))
	return ref, nil
}

// Remove deletes a previously stored reference. Missing files are not an
// error; the reference may already have been cleaned up.
func (s *Store) Remove(ref string) error {
	cleaned := filepath.Clean(filepath.FromSlash(ref))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return fmt.Errorf("media: invalid reference %q", ref)
	}
	err := os.Remove(filepath.Join(s.root, cleaned))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("media: remove image: %w", err)
	}
	return nil
}

// Path resolves a stored reference to its absolute location on disk.
func (s *Store) Path(ref string) string {
	return filepath.Join(s.root, filepath.FromSlash(ref))
}

func extension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}
