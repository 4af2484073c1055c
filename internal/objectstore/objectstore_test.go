package objectstore

import (
	"os"
	"testing"
)

func TestUploadThenGetPublicURL(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, "http://localhost:4000", "receipts")

	url, err := store.Upload("proj1/5491100000000/123.jpg", []byte("fake-jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	want := "http://localhost:4000/receipts/proj1/5491100000000/123.jpg"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestUploadOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, "http://localhost:4000", "receipts")

	if _, err := store.Upload("p/1.jpg", []byte("first"), "image/jpeg"); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	if _, err := store.Upload("p/1.jpg", []byte("second"), "image/jpeg"); err != nil {
		t.Fatalf("second upload failed: %v", err)
	}

	data, err := os.ReadFile(dir + "/receipts/p/1.jpg")
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected overwrite, got %q", data)
	}
}

func TestGetPublicURLEmptyBase(t *testing.T) {
	store := New(t.TempDir(), "", "receipts")
	if got := store.GetPublicURL("p/1.jpg"); got != "" {
		t.Errorf("expected empty URL when publicURL unset, got %q", got)
	}
}

func TestNewDefaultsBucket(t *testing.T) {
	store := New(t.TempDir(), "http://x", "")
	if store.bucket != "receipts" {
		t.Errorf("expected default bucket 'receipts', got %q", store.bucket)
	}
}
