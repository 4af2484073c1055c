// Package objectstore uploads receipt media with upsert semantics and
// serves it back by public URL, backed by local disk. A production
// deployment would point this at a real bucket; the interface is kept
// narrow so that swap is a one-file change.
package objectstore

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Store uploads receipt media and returns a URL a client can fetch it from.
type Store struct {
	root      string
	publicURL string
	bucket    string
}

// New creates a Store rooted at dataDir, serving files back under
// publicBaseURL (e.g. "http://localhost:4000/objects"); the bucket name is
// appended to it, giving URLs of the form publicBaseURL/bucket/path.
func New(dataDir, publicBaseURL, bucket string) *Store {
	if bucket == "" {
		bucket = "receipts"
	}
	return &Store{root: dataDir, publicURL: publicBaseURL, bucket: bucket}
}

// Upload writes bytes at path (relative to the bucket root), overwriting any
// existing object there, and returns its public URL. Errors are returned to
// the caller, which treats an upload failure as best-effort: log it and
// persist a null URL rather than aborting the pipeline.
func (s *Store) Upload(path string, data []byte, contentType string) (string, error) {
	fullPath := filepath.Join(s.root, s.bucket, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("objectstore: mkdir: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("objectstore: write: %w", err)
	}
	log.Printf("DEBUG: objectstore uploaded %s (%d bytes, %s)", path, len(data), contentType)
	return s.GetPublicURL(path), nil
}

// GetPublicURL returns the URL a client would use to fetch path.
func (s *Store) GetPublicURL(path string) string {
	if s.publicURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, path)
}
