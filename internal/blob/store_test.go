package blob

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadAndRemove(t *testing.T) {
	store := NewStore(t.TempDir())
	rel, err := store.Upload("spec v1.pdf", strings.NewReader("content"), "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(rel, "assets/documents/") || !strings.HasSuffix(rel, "_spec-v1.pdf") {
		t.Fatalf("unexpected relative path %q", rel)
	}
	data, err := os.ReadFile(filepath.Join(store.BasePath, filepath.FromSlash(rel)))
	if err != nil || string(data) != "content" {
		t.Fatalf("stored file mismatch: %q %v", data, err)
	}
	if err := store.Remove(rel); err != nil {
		t.Fatalf("remove: %v", err)
	}
	// Removing twice is fine.
	if err := store.Remove(rel); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestUploadRejectsExtension(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Upload("malware.exe", strings.NewReader("x"), ""); err != ErrExtensionNotAllowed {
		t.Fatalf("expected ErrExtensionNotAllowed, got %v", err)
	}
}

func TestUploadRejectsOversize(t *testing.T) {
	store := NewStore(t.TempDir())
	big := bytes.Repeat([]byte("a"), MaxFileSize+1)
	if _, err := store.Upload("big.pdf", bytes.NewReader(big), ""); err != ErrFileTooLarge {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	// Nothing left behind.
	entries, err := os.ReadDir(filepath.Join(store.BasePath, "assets/documents"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("oversize upload left %d files", len(entries))
	}
}

func TestUploadReplacesExisting(t *testing.T) {
	store := NewStore(t.TempDir())
	old, err := store.Upload("a.pdf", strings.NewReader("old"), "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	next, err := store.Upload("b.pdf", strings.NewReader("new"), old)
	if err != nil {
		t.Fatalf("replacing upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.BasePath, filepath.FromSlash(old))); !os.IsNotExist(err) {
		t.Fatal("old file not removed")
	}
	if _, err := os.Stat(filepath.Join(store.BasePath, filepath.FromSlash(next))); err != nil {
		t.Fatalf("new file missing: %v", err)
	}
}
