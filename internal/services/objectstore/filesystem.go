package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore keeps objects on local disk. URLs are served through the
// API's media route instead of being presigned.
type FilesystemStore struct {
	baseDir string
	baseURL string
}

// NewFilesystemStore creates a store rooted at baseDir. baseURL prefixes
// the URLs handed back by SignedURL, e.g. "/media".
func NewFilesystemStore(baseDir, baseURL string) (*FilesystemStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating object store directory %s: %w", baseDir, err)
	}
	return &FilesystemStore{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// BaseDir returns the directory objects are stored under
func (f *FilesystemStore) BaseDir() string {
	return f.baseDir
}

// Upload copies the local file to the store under key
func (f *FilesystemStore) Upload(ctx context.Context, localPath, key string) error {
	destPath, err := f.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s for upload: %w", localPath, err)
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("copying to %s: %w", destPath, err)
	}
	return nil
}

// Delete removes the object at key. Deleting a missing object is not an
// error.
func (f *FilesystemStore) Delete(ctx context.Context, key string) error {
	destPath, err := f.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// SignedURL returns the media route path for the object at key
func (f *FilesystemStore) SignedURL(ctx context.Context, key string) (string, error) {
	if _, err := f.resolve(key); err != nil {
		return "", err
	}
	return f.baseURL + "/" + key, nil
}

// resolve maps a key to a path under baseDir, rejecting traversal
func (f *FilesystemStore) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(f.baseDir, cleaned), nil
}
